package handler

import (
	"errors"
	"net/http"
	"strconv"

	"solhype/internal/domain"
	"solhype/internal/provider"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetToken godoc
// @Summary      Analyze a token
// @Description  Fetches the token by mint address and returns its score, classification and factors
// @Tags         tokens
// @Produce      json
// @Param        mint  path  string  true  "Solana mint address"
// @Success      200  {object}  domain.ScoredToken
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/tokens/{mint} [get]
func (h *Handler) GetToken(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-token")
	defer span.End()

	mint := c.Param("mint")
	span.SetAttributes(attribute.String("mint", mint))
	if !provider.IsMintAddress(mint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mint address: " + mint})
		return
	}

	token, err := h.tokens.Analyze(ctx, mint)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// GetBestTokens godoc
// @Summary      Best recent tokens
// @Description  Ranks recent listings and returns the top entries with their leading factors
// @Tags         tokens
// @Produce      json
// @Param        limit  query  int  false  "Number of tokens (default 5, max 20)"  default(5)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/tokens/best [get]
func (h *Handler) GetBestTokens(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-best-tokens")
	defer span.End()

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	span.SetAttributes(attribute.Int("limit", limit))

	tokens, err := h.tokens.Best(ctx, limit)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoResults):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
