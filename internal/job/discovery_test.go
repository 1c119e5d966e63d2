package job

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"solhype/internal/domain"
	"solhype/internal/history"
	"solhype/internal/notify"
	"solhype/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubFetcher struct {
	mu        sync.Mutex
	batches   [][]domain.TokenRecord
	err       error
	calls     int
	lastLimit int
}

func (f *stubFetcher) FetchRecent(_ context.Context, limit int) ([]domain.TokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, domain.ErrNoResults
	}
	b := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return b, nil
}

type sentMessage struct {
	destination string
	message     string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, destination, message string) (notify.Delivery, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return notify.Delivery{}, n.err
	}
	n.sent = append(n.sent, sentMessage{destination, message})
	return notify.Delivery{MessageID: "1"}, nil
}

type failingSaver struct{}

func (failingSaver) Save(context.Context, domain.AnalysisEntry) (history.SaveResult, error) {
	return history.SaveResult{}, domain.ErrPersistence
}

// token builds a record whose score grows with organic.
func token(mint string, organic float64) domain.TokenRecord {
	return domain.TokenRecord{
		Mint: mint, Symbol: strings.ToUpper(mint), Name: "Token " + mint,
		OrganicScore:      organic,
		OrganicScoreLabel: "medium",
		BuyVolume24h:      20_000,
	}
}

func newDiscovery(fetcher TokenFetcher, store HistorySaver, n notify.Notifier) *DiscoveryTask {
	return &DiscoveryTask{
		Loop:        "discovery",
		Fetcher:     fetcher,
		Store:       store,
		Notifier:    n,
		Channel:     "telegram",
		Destination: "-100",
		Metrics:     observability.NewMetrics(),
	}
}

func memoryStore(key string) *history.Store {
	return history.NewStore(history.NewMemoryBackend(), key, testTracer)
}

func TestDiscoveryNotifiesOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	first := []domain.TokenRecord{token("b", 60), token("a", 90), token("c", 30)}
	fetcher := &stubFetcher{batches: [][]domain.TokenRecord{
		first,
		first,
		{token("a", 50), token("c", 95)},
	}}
	store := memoryStore("discovery")
	n := &recordingNotifier{}
	task := newDiscovery(fetcher, store, n)

	if err := task.Run(ctx); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0].message, "`$A`") || n.sent[0].destination != "-100" {
		t.Fatalf("expected alert for A, got %+v", n.sent)
	}
	if fetcher.lastLimit != DefaultFetchLimit {
		t.Fatalf("expected fetch limit %d, got %d", DefaultFetchLimit, fetcher.lastLimit)
	}

	if err := task.Run(ctx); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("unchanged top should not notify, got %d messages", len(n.sent))
	}

	if err := task.Run(ctx); err != nil {
		t.Fatalf("third tick: %v", err)
	}
	if len(n.sent) != 2 || !strings.Contains(n.sent[1].message, "`$C`") {
		t.Fatalf("expected alert for C, got %+v", n.sent)
	}

	h, _ := store.Load(ctx)
	if h.BestMint() != "c" || len(h.PreviousAnalyses) != 1 || h.PreviousAnalyses[0].Mint != "a" {
		t.Fatalf("unexpected history: %+v", h)
	}
	if h.BestToken.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", h.BestToken.Rank)
	}
	if got := testutil.ToFloat64(task.Metrics.BestChanges.WithLabelValues("discovery")); got != 2 {
		t.Fatalf("expected 2 best changes, got %v", got)
	}
}

func TestDiscoveryProviderFailureLeavesHistory(t *testing.T) {
	ctx := context.Background()
	store := memoryStore("discovery")
	n := &recordingNotifier{}

	fetcher := &stubFetcher{err: domain.ErrProviderUnavailable}
	if err := newDiscovery(fetcher, store, n).Run(ctx); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	h, _ := store.Load(ctx)
	if h.BestToken != nil || len(n.sent) != 0 {
		t.Fatalf("failed fetch should not touch history or notify: %+v", h)
	}
}

func TestDiscoveryAllMalformed(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]domain.TokenRecord{{{Mint: ""}}}}
	err := newDiscovery(fetcher, memoryStore("discovery"), &recordingNotifier{}).Run(context.Background())
	if !errors.Is(err, domain.ErrNoResults) {
		t.Fatalf("expected no results, got %v", err)
	}
}

func TestDiscoveryPersistenceFailureSkipsNotify(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]domain.TokenRecord{{token("a", 90)}}}
	n := &recordingNotifier{}
	err := newDiscovery(fetcher, failingSaver{}, n).Run(context.Background())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatal("should not notify when save fails")
	}
}

func TestDiscoveryNotifierFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{batches: [][]domain.TokenRecord{{token("a", 90)}}}
	store := memoryStore("discovery")
	task := newDiscovery(fetcher, store, &recordingNotifier{err: domain.ErrDelivery})

	if err := task.Run(ctx); err != nil {
		t.Fatalf("notifier failure should not fail the tick: %v", err)
	}
	h, _ := store.Load(ctx)
	if h.BestMint() != "a" {
		t.Fatalf("history should be saved even when notify fails, got %+v", h)
	}
	if got := testutil.ToFloat64(task.Metrics.Notifications.WithLabelValues("telegram", observability.OutcomeError)); got != 1 {
		t.Fatalf("expected failed notification metric, got %v", got)
	}
}

func TestDiscoveryWithoutDestination(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]domain.TokenRecord{{token("a", 90)}}}
	n := &recordingNotifier{}
	task := newDiscovery(fetcher, memoryStore("discovery"), n)
	task.Destination = ""
	if err := task.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 0 {
		t.Fatal("no destination means no message")
	}
}

func TestDiscoveryThroughLoopScenario(t *testing.T) {
	first := []domain.TokenRecord{token("b", 60), token("a", 90), token("c", 30)}
	fetcher := &stubFetcher{batches: [][]domain.TokenRecord{first, first, {token("c", 95)}}}
	n := &recordingNotifier{}
	task := newDiscovery(fetcher, memoryStore("discovery"), n)

	l := newTestLoop(context.Background(), 0, task.Run)
	for i := 0; i < 3; i++ {
		if err := l.RunOnce(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if len(n.sent) != 2 {
		t.Fatalf("expected 2 alerts over 3 ticks, got %d", len(n.sent))
	}
	if s := l.Status(); s.Runs != 3 || s.Active {
		t.Fatalf("unexpected status %+v", s)
	}
}
