package handler

import (
	"context"
	"net/http"

	"solhype/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type LoopRunner interface {
	Name() string
	Start() bool
	Stop() bool
	Status() domain.LoopStatus
	RunOnce(ctx context.Context) error
}

type TokenAnalyzer interface {
	Analyze(ctx context.Context, mint string) (domain.ScoredToken, error)
	Best(ctx context.Context, limit int) ([]domain.ScoredToken, error)
}

type HistoryReader interface {
	Load(ctx context.Context) (domain.AnalysisHistory, error)
}

type Handler struct {
	tracer    trace.Tracer
	tokens    TokenAnalyzer
	loops     map[string]LoopRunner
	loopOrder []string
	histories map[string]HistoryReader
	metrics   http.Handler
}

func New(tracer trace.Tracer, tokens TokenAnalyzer) *Handler {
	return &Handler{
		tracer:    tracer,
		tokens:    tokens,
		loops:     make(map[string]LoopRunner),
		histories: make(map[string]HistoryReader),
	}
}

// AddLoop exposes a loop under /api/loops/<name> and, when history is
// non-nil, its record under /api/history?loop=<name>.
func (h *Handler) AddLoop(l LoopRunner, history HistoryReader) {
	name := l.Name()
	if _, ok := h.loops[name]; !ok {
		h.loopOrder = append(h.loopOrder, name)
	}
	h.loops[name] = l
	if history != nil {
		h.histories[name] = history
	}
}

func (h *Handler) SetMetricsHandler(m http.Handler) {
	h.metrics = m
}

// RegisterRoutes mounts every route on r. Loop control requires apiKey when
// it is non-empty.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	api.GET("/loops", h.ListLoops)
	api.GET("/loops/:name", h.GetLoop)
	api.GET("/history", h.GetHistory)
	api.GET("/tokens/best", h.GetBestTokens)
	api.GET("/tokens/:mint", h.GetToken)

	control := api.Group("/loops/:name", APIKeyAuth(apiKey))
	control.POST("/start", h.StartLoop)
	control.POST("/stop", h.StopLoop)
	control.POST("/run", h.RunLoop)
}
