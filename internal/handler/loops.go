package handler

import (
	"errors"
	"net/http"

	"solhype/internal/domain"
	"solhype/internal/job"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListLoops godoc
// @Summary      List scheduler loops
// @Description  Returns the status of every scheduler loop
// @Tags         loops
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/loops [get]
func (h *Handler) ListLoops(c *gin.Context) {
	statuses := make([]domain.LoopStatus, 0, len(h.loopOrder))
	for _, name := range h.loopOrder {
		statuses = append(statuses, h.loops[name].Status())
	}
	c.JSON(http.StatusOK, gin.H{"loops": statuses})
}

// GetLoop godoc
// @Summary      Get a scheduler loop
// @Tags         loops
// @Produce      json
// @Param        name  path  string  true  "Loop name (discovery, posting)"
// @Success      200  {object}  domain.LoopStatus
// @Failure      404  {object}  map[string]string
// @Router       /api/loops/{name} [get]
func (h *Handler) GetLoop(c *gin.Context) {
	l, ok := h.loop(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, l.Status())
}

// StartLoop godoc
// @Summary      Start a scheduler loop
// @Tags         loops
// @Produce      json
// @Param        name  path  string  true  "Loop name"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/loops/{name}/start [post]
func (h *Handler) StartLoop(c *gin.Context) {
	l, ok := h.loop(c)
	if !ok {
		return
	}
	started := l.Start()
	c.JSON(http.StatusOK, gin.H{"started": started, "status": l.Status()})
}

// StopLoop godoc
// @Summary      Stop a scheduler loop
// @Description  Prevents further ticks; a tick already running finishes
// @Tags         loops
// @Produce      json
// @Param        name  path  string  true  "Loop name"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/loops/{name}/stop [post]
func (h *Handler) StopLoop(c *gin.Context) {
	l, ok := h.loop(c)
	if !ok {
		return
	}
	stopped := l.Stop()
	c.JSON(http.StatusOK, gin.H{"stopped": stopped, "status": l.Status()})
}

// RunLoop godoc
// @Summary      Run one tick now
// @Description  Runs a single tick synchronously, outside the schedule
// @Tags         loops
// @Produce      json
// @Param        name  path  string  true  "Loop name"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/loops/{name}/run [post]
func (h *Handler) RunLoop(c *gin.Context) {
	l, ok := h.loop(c)
	if !ok {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-loop")
	defer span.End()
	span.SetAttributes(attribute.String("loop", l.Name()))

	err := l.RunOnce(ctx)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"outcome": "ok", "status": l.Status()})
	case errors.Is(err, job.ErrTickInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoResults):
		c.JSON(http.StatusOK, gin.H{"outcome": "no_results", "status": l.Status()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"outcome": "error", "error": err.Error()})
	}
}

func (h *Handler) loop(c *gin.Context) (LoopRunner, bool) {
	name := c.Param("name")
	l, ok := h.loops[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown loop: " + name})
		return nil, false
	}
	return l, true
}
