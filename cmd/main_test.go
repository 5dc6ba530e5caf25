package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/s/trainingHub/internal/config"
	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/metrics"
	"github.com/s/trainingHub/internal/testutil"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := sessions.NewCookieStore([]byte("test-session-key-0123456789abcdef"))
	h := handlers.NewHandler(testutil.NewDB(t), store, nil, handlers.Options{RoleCheckTimeout: time.Second}, testutil.Logger())
	t.Cleanup(h.Auth.Close)
	return routes(h, config.Config{SignInRateLimit: 10})
}

func TestUnmatchedRoutesAreCounted(t *testing.T) {
	r := newRouter(t)
	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before := promtest.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, before+1, promtest.ToFloat64(counter))
}

func TestMatchedRoutesUseTemplate(t *testing.T) {
	r := newRouter(t)
	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")
	before := promtest.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, promtest.ToFloat64(counter))
}
