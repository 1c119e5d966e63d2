package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"solhype/internal/domain"
	"solhype/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrTickInProgress is returned by RunOnce when a tick is already running.
var ErrTickInProgress = errors.New("tick already in progress")

// DefaultInterval replaces a non-positive LoopConfig.Interval.
const DefaultInterval = 5 * time.Minute

// Task is one tick body. The tick logger, carrying loop name and run id, is
// attached to ctx and can be read with zerolog.Ctx.
type Task func(ctx context.Context) error

type LoopConfig struct {
	Name        string
	Interval    time.Duration
	Destination string
	Task        Task
	Tracer      trace.Tracer
	Metrics     *observability.Metrics
}

// Loop schedules a Task on a fixed interval. At most one tick body runs at a
// time; a tick that fires while another is running is skipped.
type Loop struct {
	cfg  LoopConfig
	root context.Context

	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64

	mu      sync.Mutex
	active  bool
	stop    chan struct{}
	lastRun time.Time
	nextRun time.Time

	inflight sync.WaitGroup
	now      func() time.Time
}

// NewLoop creates an idle loop. Ticks run with contexts derived from root, so
// cancelling root cancels in-flight I/O and ends the schedule.
func NewLoop(root context.Context, cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		log.Warn().Str("loop", cfg.Name).Dur("interval", cfg.Interval).Dur("using", DefaultInterval).Msg("non-positive loop interval")
		cfg.Interval = DefaultInterval
	}
	return &Loop{cfg: cfg, root: root, now: time.Now}
}

func (l *Loop) Name() string { return l.cfg.Name }

// Start schedules the loop: one tick immediately, then one per interval.
// It reports false when the loop was already active.
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return false
	}
	l.active = true
	l.stop = make(chan struct{})
	l.nextRun = l.now().Add(l.cfg.Interval)

	l.inflight.Add(1)
	go l.scheduledTick()
	go l.schedule(l.stop)

	log.Info().Str("loop", l.cfg.Name).Dur("interval", l.cfg.Interval).Msg("loop started")
	l.cfg.Metrics.SetActive(l.cfg.Name, true)
	return true
}

// Stop cancels the schedule. An in-flight tick is allowed to finish. It
// reports false when the loop was not active.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return false
	}
	close(l.stop)
	l.active = false
	l.stop = nil
	l.nextRun = time.Time{}

	log.Info().Str("loop", l.cfg.Name).Msg("loop stopped")
	l.cfg.Metrics.SetActive(l.cfg.Name, false)
	return true
}

// Wait blocks until every in-flight tick has returned.
func (l *Loop) Wait() {
	l.inflight.Wait()
}

func (l *Loop) Status() domain.LoopStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := domain.LoopStatus{
		Name:        l.cfg.Name,
		Active:      l.active,
		Running:     l.running.Load(),
		Destination: l.cfg.Destination,
		Interval:    l.cfg.Interval,
		Runs:        l.runs.Load(),
		Skipped:     l.skipped.Load(),
	}
	if !l.lastRun.IsZero() {
		t := l.lastRun
		s.LastRunAt = &t
	}
	if l.active && !l.nextRun.IsZero() {
		t := l.nextRun
		s.NextRun = &t
	}
	return s
}

// RunOnce runs a tick synchronously on ctx, outside the schedule. It shares
// the re-entrancy guard with scheduled ticks.
func (l *Loop) RunOnce(ctx context.Context) error {
	l.inflight.Add(1)
	defer l.inflight.Done()
	return l.tick(ctx)
}

func (l *Loop) schedule(stop <-chan struct{}) {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-l.root.Done():
			l.Stop()
			return
		case <-ticker.C:
			l.mu.Lock()
			if l.stop != stop {
				l.mu.Unlock()
				return
			}
			l.nextRun = l.now().Add(l.cfg.Interval)
			l.inflight.Add(1)
			l.mu.Unlock()
			go l.scheduledTick()
		}
	}
}

// scheduledTick runs in its own goroutine so the ticker keeps its cadence and
// overlapping ticks are observed as skipped. The caller has already added it
// to inflight.
func (l *Loop) scheduledTick() {
	defer l.inflight.Done()
	_ = l.tick(l.root)
}

func (l *Loop) tick(ctx context.Context) (err error) {
	if !l.running.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		l.cfg.Metrics.SkipTick(l.cfg.Name)
		log.Warn().Str("loop", l.cfg.Name).Msg("previous tick still running, skipping")
		return ErrTickInProgress
	}
	defer l.running.Store(false)

	runID := uuid.NewString()
	logger := log.With().Str("loop", l.cfg.Name).Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := l.cfg.Tracer.Start(ctx, "loop.tick")
	defer span.End()
	span.SetAttributes(attribute.String("loop", l.cfg.Name), attribute.String("run_id", runID))

	start := l.now()
	l.mu.Lock()
	l.lastRun = start
	l.mu.Unlock()
	l.runs.Add(1)

	outcome := observability.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			outcome = observability.OutcomePanic
			err = fmt.Errorf("tick panic: %v", r)
		}
		elapsed := time.Since(start)
		l.cfg.Metrics.ObserveTick(l.cfg.Name, outcome, elapsed)

		ev := logEvent(&logger, outcome)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			ev = ev.Err(err)
		}
		ev.Str("outcome", outcome).Dur("duration", elapsed).Msg("tick finished")
	}()

	logger.Debug().Msg("tick started")
	if err = l.cfg.Task(ctx); err != nil {
		outcome = observability.OutcomeError
		if errors.Is(err, domain.ErrNoResults) {
			outcome = observability.OutcomeNoResults
		}
	}
	return err
}

func logEvent(logger *zerolog.Logger, outcome string) *zerolog.Event {
	switch outcome {
	case observability.OutcomeOK:
		return logger.Info()
	case observability.OutcomeNoResults:
		return logger.Warn()
	default:
		return logger.Error()
	}
}
