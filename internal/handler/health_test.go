package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := New(trace.NewNoopTracerProvider().Tracer("test"), &stubTokens{})
	h.AddLoop(&stubLoop{name: "discovery", active: true}, nil)
	h.AddLoop(&stubLoop{name: "posting"}, nil)
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Status string          `json:"status"`
		Loops  map[string]bool `json:"loops"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if body.Status != "healthy" || !body.Loops["discovery"] || body.Loops["posting"] {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
