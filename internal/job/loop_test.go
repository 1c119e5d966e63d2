package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"solhype/internal/domain"
	"solhype/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func newTestLoop(ctx context.Context, interval time.Duration, task Task) *Loop {
	return NewLoop(ctx, LoopConfig{
		Name:        "discovery",
		Interval:    interval,
		Destination: "-100",
		Task:        task,
		Tracer:      testTracer,
		Metrics:     observability.NewMetrics(),
	})
}

func TestLoopStartStopTransitions(t *testing.T) {
	var calls atomic.Int32
	l := newTestLoop(context.Background(), time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	if s := l.Status(); s.Active || s.Running || s.NextRun != nil {
		t.Fatalf("new loop should be idle, got %+v", s)
	}
	if !l.Start() {
		t.Fatal("first start should succeed")
	}
	if l.Start() {
		t.Fatal("second start should be a no-op")
	}

	eventually(t, func() bool { return calls.Load() == 1 })
	s := l.Status()
	if !s.Active || s.NextRun == nil || s.Destination != "-100" || s.Interval != time.Hour {
		t.Fatalf("unexpected active status: %+v", s)
	}

	if !l.Stop() {
		t.Fatal("stop should succeed")
	}
	if l.Stop() {
		t.Fatal("second stop should be a no-op")
	}
	l.Wait()
	if s := l.Status(); s.Active || s.NextRun != nil || s.LastRunAt == nil || s.Runs != 1 {
		t.Fatalf("unexpected stopped status: %+v", s)
	}
}

func TestLoopNonPositiveIntervalUsesDefault(t *testing.T) {
	for _, interval := range []time.Duration{0, -5 * time.Second} {
		var calls atomic.Int32
		l := newTestLoop(context.Background(), interval, func(context.Context) error {
			calls.Add(1)
			return nil
		})
		if !l.Start() {
			t.Fatalf("start with interval %v should succeed", interval)
		}
		eventually(t, func() bool { return calls.Load() == 1 })
		if got := l.Status().Interval; got != DefaultInterval {
			t.Fatalf("interval %v: expected %v, got %v", interval, DefaultInterval, got)
		}
		l.Stop()
		l.Wait()
	}
}

func TestLoopTicksOnInterval(t *testing.T) {
	var calls atomic.Int32
	l := newTestLoop(context.Background(), 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	l.Start()
	eventually(t, func() bool { return calls.Load() >= 3 })
	l.Stop()
	l.Wait()

	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("ticks fired after stop: %d -> %d", after, calls.Load())
	}
}

func TestLoopSkipsOverlappingTicks(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	l := newTestLoop(context.Background(), 5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		<-release
		return nil
	})

	l.Start()
	eventually(t, func() bool { return l.Status().Running })
	eventually(t, func() bool { return l.Status().Skipped >= 2 })

	if err := l.RunOnce(context.Background()); !errors.Is(err, ErrTickInProgress) {
		t.Fatalf("expected tick in progress, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("only one tick body should run, got %d", calls.Load())
	}

	l.Stop()
	close(release)
	l.Wait()

	if l.Status().Running {
		t.Fatal("running should clear after the tick returns")
	}
	if got := testutil.ToFloat64(l.cfg.Metrics.TicksSkipped.WithLabelValues("discovery")); got < 2 {
		t.Fatalf("expected skipped ticks to be counted, got %v", got)
	}
}

func TestLoopStopLetsInflightTickFinish(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	l := newTestLoop(context.Background(), time.Hour, func(ctx context.Context) error {
		<-release
		finished.Store(true)
		return nil
	})

	l.Start()
	eventually(t, func() bool { return l.Status().Running })
	l.Stop()

	s := l.Status()
	if s.Active || !s.Running {
		t.Fatalf("expected inactive but running, got %+v", s)
	}
	close(release)
	l.Wait()
	if !finished.Load() {
		t.Fatal("in-flight tick should complete after stop")
	}
}

func TestLoopRestart(t *testing.T) {
	var calls atomic.Int32
	l := newTestLoop(context.Background(), time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	l.Start()
	eventually(t, func() bool { return calls.Load() == 1 })
	l.Stop()
	l.Wait()
	if !l.Start() {
		t.Fatal("restart should succeed")
	}
	eventually(t, func() bool { return calls.Load() == 2 })
	l.Stop()
	l.Wait()
}

func TestLoopRecoversPanics(t *testing.T) {
	l := newTestLoop(context.Background(), time.Hour, func(context.Context) error {
		panic("boom")
	})
	err := l.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error from panicking tick")
	}
	if l.Status().Running {
		t.Fatal("running flag should clear after panic")
	}
	if got := testutil.ToFloat64(l.cfg.Metrics.TicksTotal.WithLabelValues("discovery", observability.OutcomePanic)); got != 1 {
		t.Fatalf("expected panic outcome counted, got %v", got)
	}
}

func TestLoopOutcomes(t *testing.T) {
	l := newTestLoop(context.Background(), time.Hour, func(context.Context) error {
		return domain.ErrNoResults
	})
	if err := l.RunOnce(context.Background()); !errors.Is(err, domain.ErrNoResults) {
		t.Fatalf("expected no results, got %v", err)
	}
	if got := testutil.ToFloat64(l.cfg.Metrics.TicksTotal.WithLabelValues("discovery", observability.OutcomeNoResults)); got != 1 {
		t.Fatalf("expected no_results outcome, got %v", got)
	}
}

func TestLoopEndsWhenRootCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := newTestLoop(ctx, 10*time.Millisecond, func(ctx context.Context) error { return nil })
	l.Start()
	cancel()
	eventually(t, func() bool { return !l.Status().Active })
	l.Wait()
}
