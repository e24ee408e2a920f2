package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCorrelationRouter() *gin.Engine {
	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.POST("/", func(c *gin.Context) {
		c.String(http.StatusOK, CorrelationID(c))
	})
	return r
}

func TestCorrelationMiddleware_GeneratesIDWhenAbsent(t *testing.T) {
	r := newCorrelationRouter()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get(CorrelationIDHeader) == "" {
		t.Error("expected X-Correlation-ID response header to be set")
	}
	if w.Body.String() == "" {
		t.Error("expected correlation id in context")
	}
}

func TestCorrelationMiddleware_PropagatesIncomingID(t *testing.T) {
	r := newCorrelationRouter()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CorrelationIDHeader, "retry-op-001")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Body.String(); got != "retry-op-001" {
		t.Errorf("correlation id = %q, want %q", got, "retry-op-001")
	}
	if got := w.Header().Get(CorrelationIDHeader); got != "retry-op-001" {
		t.Errorf("header = %q, want %q", got, "retry-op-001")
	}
}
