package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuongbtq/invoice-pipeline/internal/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubHealth struct{ err error }

func (h stubHealth) HealthCheck(ctx context.Context) error { return h.err }

func newEngine(health handler.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(&handler.Dependencies{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Health: health,
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health handler.HealthChecker
		code   int
	}{
		{name: "healthy", health: stubHealth{}, code: http.StatusOK},
		{name: "database down", health: stubHealth{err: errors.New("dial tcp: refused")}, code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newEngine(tt.health).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	engine := newEngine(stubHealth{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-123")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(stubHealth{}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}
