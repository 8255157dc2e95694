package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/thelyst/internal/config"
	"github.com/thelyst/internal/pkg/metrics"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(config.Load(), &Deps{Metrics: metrics.New(reg), Registry: reg})
}

func TestRouter_HealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"message":"pong"}`, rr.Body.String())
}

func TestRouter_MetricsExposeRoutePattern(t *testing.T) {
	router := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `route="/v1/health-check/{action}"`))
}

func TestRouter_ProtectedRoutesNeedSession(t *testing.T) {
	router := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/users/me"},
		{http.MethodPut, "/v1/users/me"},
		{http.MethodPut, "/v1/users/me/avatar"},
		{http.MethodPost, "/v1/auth/link-password"},
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
	}
}

func TestRouter_VerifySessionWithoutCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/auth/verify", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"authenticated":false`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_SensitiveRoutesIgnoreSpoofedForwardedFor(t *testing.T) {
	router := newTestRouter(t)

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/send-otp", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
