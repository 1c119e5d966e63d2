package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solhype/internal/compose"
	"solhype/internal/domain"
	"solhype/internal/notify"
	"solhype/internal/observability"
	"solhype/internal/ranking"

	"github.com/rs/zerolog"
)

const postingCandidates = 3

// PostingTask publishes the current top token on every tick and records what
// was posted.
type PostingTask struct {
	Loop        string
	Fetcher     TokenFetcher
	Store       HistorySaver
	Writer      compose.Writer
	Notifier    notify.Notifier
	Channel     string
	Destination string
	FetchLimit  int
	Metrics     *observability.Metrics
	Now         func() time.Time
}

func (t *PostingTask) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	limit := t.FetchLimit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	records, err := t.Fetcher.FetchRecent(ctx, limit)
	if err != nil {
		return err
	}

	ranked := ranking.Rank(records)
	if t.Metrics != nil {
		t.Metrics.TokensScored.WithLabelValues(t.Loop).Add(float64(len(ranked)))
	}
	top := ranking.Top(ranked, postingCandidates)
	if len(top) == 0 {
		return fmt.Errorf("rank %d records: %w", len(records), domain.ErrNoResults)
	}

	labels := make(map[string]string, len(records))
	for _, r := range records {
		labels[r.Mint] = r.OrganicScoreLabel
	}
	candidates := make([]compose.Candidate, len(top))
	for i, s := range top {
		label := labels[s.Mint]
		candidates[i] = compose.Candidate{Token: s, Verified: label != "" && !strings.EqualFold(label, "low")}
	}

	text, err := t.Writer.Write(ctx, candidates)
	if err != nil {
		return fmt.Errorf("compose post: %w", err)
	}

	d, err := t.Notifier.Send(ctx, t.Destination, text)
	t.Metrics.Notified(t.Channel, err)
	if err != nil {
		return fmt.Errorf("post %s: %w", top[0].Mint, err)
	}
	logger.Info().Str("mint", top[0].Mint).Str("message_id", d.MessageID).Str("url", d.URL).Msg("top token posted")

	now := time.Now().UTC()
	if t.Now != nil {
		now = t.Now()
	}
	res, err := t.Store.Save(ctx, domain.AnalysisEntry{ScoredToken: top[0], Rank: 1, AnalyzedAt: now})
	if err != nil {
		if t.Metrics != nil {
			t.Metrics.HistoryErrors.WithLabelValues("save").Inc()
		}
		return err
	}
	if res.Changed && t.Metrics != nil {
		t.Metrics.BestChanges.WithLabelValues(t.Loop).Inc()
	}
	return nil
}
