// Package observability provides Prometheus metrics for the discovery loops.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solhype"

// Tick outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNoResults = "no_results"
	OutcomeError     = "error"
	OutcomePanic     = "panic"
)

// Metrics holds the collectors on their own registry so tests and multiple
// instances never collide on the default registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Loop metrics
	TicksTotal   *prometheus.CounterVec
	TicksSkipped *prometheus.CounterVec
	TickDuration *prometheus.HistogramVec
	LoopActive   *prometheus.GaugeVec

	// Discovery metrics
	TokensScored    *prometheus.CounterVec
	BestChanges     *prometheus.CounterVec
	BestScore       *prometheus.GaugeVec
	LastSuccessUnix *prometheus.GaugeVec

	// Delivery metrics
	Notifications *prometheus.CounterVec

	// Persistence metrics
	HistoryErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		TicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "ticks_total",
			Help:      "Completed loop ticks by outcome",
		}, []string{"loop", "outcome"}),
		TicksSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because the previous tick was still running",
		}, []string{"loop"}),
		TickDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "tick_duration_seconds",
			Help:      "Tick body duration",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"loop"}),
		LoopActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "active",
			Help:      "1 when the loop is scheduled",
		}, []string{"loop"}),

		TokensScored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "tokens_scored_total",
			Help:      "Token records scored",
		}, []string{"loop"}),
		BestChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "best_changes_total",
			Help:      "Times the stored best token changed",
		}, []string{"loop"}),
		BestScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "best_score",
			Help:      "Score of the most recent top-ranked token",
		}, []string{"loop"}),
		LastSuccessUnix: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful tick",
		}, []string{"loop"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Notifications sent by channel and outcome",
		}, []string{"channel", "outcome"}),

		HistoryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "errors_total",
			Help:      "History store failures by operation",
		}, []string{"op"}),
	}
}

// ObserveTick records one finished tick.
func (m *Metrics) ObserveTick(loop, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(loop, outcome).Inc()
	m.TickDuration.WithLabelValues(loop).Observe(d.Seconds())
	if outcome == OutcomeOK {
		m.LastSuccessUnix.WithLabelValues(loop).Set(float64(time.Now().Unix()))
	}
}

func (m *Metrics) SkipTick(loop string) {
	if m == nil {
		return
	}
	m.TicksSkipped.WithLabelValues(loop).Inc()
}

func (m *Metrics) SetActive(loop string, active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.LoopActive.WithLabelValues(loop).Set(v)
}

func (m *Metrics) Notified(channel string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Notifications.WithLabelValues(channel, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
