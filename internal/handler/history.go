package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetHistory godoc
// @Summary      Persisted best-token history
// @Description  Returns the stored record of a loop (discovery by default)
// @Tags         history
// @Produce      json
// @Param        loop  query  string  false  "Loop name"  default(discovery)
// @Success      200  {object}  domain.AnalysisHistory
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	name := c.DefaultQuery("loop", "discovery")
	span.SetAttributes(attribute.String("loop", name))

	reader, ok := h.histories[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no history for loop: " + name})
		return
	}

	history, err := reader.Load(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}
