package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service and which loops are active
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	active := make(map[string]bool, len(h.loopOrder))
	for _, name := range h.loopOrder {
		active[name] = h.loops[name].Status().Active
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "loops": active})
}
