package job

import (
	"context"
	"fmt"
	"time"

	"solhype/internal/domain"
	"solhype/internal/history"
	"solhype/internal/notify"
	"solhype/internal/observability"
	"solhype/internal/ranking"

	"github.com/rs/zerolog"
)

const DefaultFetchLimit = 50

type TokenFetcher interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.TokenRecord, error)
}

type HistorySaver interface {
	Save(ctx context.Context, candidate domain.AnalysisEntry) (history.SaveResult, error)
}

// DiscoveryTask ranks recent listings, records the top token and alerts the
// destination when the top token changes.
type DiscoveryTask struct {
	Loop        string
	Fetcher     TokenFetcher
	Store       HistorySaver
	Notifier    notify.Notifier
	Channel     string
	Destination string
	FetchLimit  int
	Metrics     *observability.Metrics
	Now         func() time.Time
}

func (t *DiscoveryTask) Run(ctx context.Context) error {
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
	if len(ranked) == 0 {
		return fmt.Errorf("rank %d records: %w", len(records), domain.ErrNoResults)
	}

	top := ranked[0]
	if t.Metrics != nil {
		t.Metrics.BestScore.WithLabelValues(t.Loop).Set(float64(top.Score))
	}
	logger.Info().Str("mint", top.Mint).Str("symbol", top.Symbol).Int("score", top.Score).Int("candidates", len(ranked)).Msg("top token ranked")

	res, err := t.Store.Save(ctx, domain.AnalysisEntry{ScoredToken: top, Rank: 1, AnalyzedAt: t.now()})
	if err != nil {
		if t.Metrics != nil {
			t.Metrics.HistoryErrors.WithLabelValues("save").Inc()
		}
		return err
	}
	if !res.Changed {
		logger.Info().Str("mint", top.Mint).Msg("top token unchanged")
		return nil
	}

	if t.Metrics != nil {
		t.Metrics.BestChanges.WithLabelValues(t.Loop).Inc()
	}
	if t.Destination == "" {
		logger.Warn().Str("mint", top.Mint).Msg("top token changed but no destination configured")
		return nil
	}

	msg := notify.FormatDiscovery(*res.History.BestToken)
	d, err := t.Notifier.Send(ctx, t.Destination, msg)
	t.Metrics.Notified(t.Channel, err)
	if err != nil {
		logger.Error().Err(err).Str("mint", top.Mint).Msg("discovery notification failed")
		return nil
	}
	logger.Info().Str("mint", top.Mint).Str("message_id", d.MessageID).Msg("discovery notification sent")
	return nil
}

func (t *DiscoveryTask) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now().UTC()
}
