package obs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ratepilot/internal/domain/shared/errs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestReadyzReportsFailingChecks(t *testing.T) {
	r := gin.New()
	h := HealthHandlers{Checks: map[string]Check{
		"mongo": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}}
	r.GET("/readyz", h.Readyz)
	r.GET("/livez", h.Livez)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
	assert.NotContains(t, w.Body.String(), "mongo")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := gin.New()
	m := Middleware{}
	r.Use(m.RequestID(), m.LoggerMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", w.Body.String())
}

func TestObserveDispatchOutcomes(t *testing.T) {
	before := testutil.ToFloat64(DispatchCount.WithLabelValues("query", "test.key", "unavailable"))
	ObserveDispatch("query", "test.key", time.Millisecond, errs.Unavailable("market", errors.New("down")))
	after := testutil.ToFloat64(DispatchCount.WithLabelValues("query", "test.key", "unavailable"))
	assert.Equal(t, before+1, after)

	assert.Equal(t, "not_found", outcome(errs.ErrNotFound))
	assert.Equal(t, "invalid", outcome(errs.ErrInvalidDate))
	assert.Equal(t, "ok", outcome(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
