// Package history persists the best-token record of a discovery loop.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solhype/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxPrevious caps the length of AnalysisHistory.PreviousAnalyses.
const MaxPrevious = 20

// Backend reads and writes one JSON document per record key. Read returns
// (nil, nil) when the key has never been written. Write must replace the
// document atomically.
type Backend interface {
	Name() string
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, doc []byte) error
}

type SaveResult struct {
	History domain.AnalysisHistory
	Changed bool
}

// Store owns a single history record. Callers must not Save concurrently
// against the same key.
type Store struct {
	backend Backend
	key     string
	tracer  trace.Tracer
	now     func() time.Time
}

func NewStore(backend Backend, key string, tracer trace.Tracer) *Store {
	return &Store{
		backend: backend,
		key:     key,
		tracer:  tracer,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Key() string { return s.key }

// Load returns the stored history, or the zero history when the record is
// missing or corrupt. An unreachable backend yields the zero history together
// with the error; callers may ignore it.
func (s *Store) Load(ctx context.Context) (domain.AnalysisHistory, error) {
	ctx, span := s.tracer.Start(ctx, "history.load")
	defer span.End()
	span.SetAttributes(attribute.String("backend", s.backend.Name()), attribute.String("key", s.key))

	h, err := s.read(ctx)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("history load failed, using empty history")
		return emptyHistory(), err
	}
	return h, nil
}

// Save records candidate as the best token. Changed is true iff the
// candidate's mint differs from the stored best (always true on first save).
func (s *Store) Save(ctx context.Context, candidate domain.AnalysisEntry) (SaveResult, error) {
	ctx, span := s.tracer.Start(ctx, "history.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("backend", s.backend.Name()),
		attribute.String("key", s.key),
		attribute.String("mint", candidate.Mint),
	)

	prev, err := s.read(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, s.key, err)
	}

	next, changed := Apply(prev, candidate, s.now())

	doc, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return SaveResult{}, fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, s.key, err)
	}
	if err := s.backend.Write(ctx, s.key, doc); err != nil {
		return SaveResult{}, fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, s.key, err)
	}

	span.SetAttributes(attribute.Bool("changed", changed))
	return SaveResult{History: next, Changed: changed}, nil
}

// read distinguishes an unreachable backend (error) from a missing or
// corrupt record (empty history).
func (s *Store) read(ctx context.Context) (domain.AnalysisHistory, error) {
	doc, err := s.backend.Read(ctx, s.key)
	if err != nil {
		return domain.AnalysisHistory{}, err
	}
	if len(doc) == 0 {
		return emptyHistory(), nil
	}

	var h domain.AnalysisHistory
	if err := json.Unmarshal(doc, &h); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("corrupt history record, starting fresh")
		return emptyHistory(), nil
	}
	if h.BestToken != nil && h.BestToken.Mint == "" {
		h.BestToken = nil
	}
	if h.PreviousAnalyses == nil {
		h.PreviousAnalyses = []domain.AnalysisEntry{}
	}
	return h, nil
}

// Apply computes the history that results from storing candidate on top of
// prev. The previous best is pushed to the front of PreviousAnalyses only
// when the best mint changes.
func Apply(prev domain.AnalysisHistory, candidate domain.AnalysisEntry, now time.Time) (domain.AnalysisHistory, bool) {
	changed := candidate.Mint != prev.BestMint()

	previous := make([]domain.AnalysisEntry, 0, MaxPrevious)
	if changed && prev.BestToken != nil {
		previous = append(previous, *prev.BestToken)
	}
	previous = append(previous, prev.PreviousAnalyses...)
	if len(previous) > MaxPrevious {
		previous = previous[:MaxPrevious]
	}

	best := candidate
	best.AnalyzedAt = now
	best.Factors = append([]string(nil), candidate.Factors...)

	return domain.AnalysisHistory{
		LastAnalysis:     now,
		BestToken:        &best,
		PreviousAnalyses: previous,
	}, changed
}

func emptyHistory() domain.AnalysisHistory {
	return domain.AnalysisHistory{PreviousAnalyses: []domain.AnalysisEntry{}}
}
