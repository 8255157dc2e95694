package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OTPIssued("issued")
	m.OTPVerified("mismatch")
	m.OTPVerified("mismatch")
	m.MailDelivered("failed")
	m.RegistrationStep("confirm", "ok")
	m.SessionIssued("remember")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OTPIssuedTotal.WithLabelValues("issued")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OTPVerificationsTotal.WithLabelValues("mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MailDeliveriesTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsTotal.WithLabelValues("confirm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsIssuedTotal.WithLabelValues("remember")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OTPIssued("issued")
		m.OTPVerified("valid")
		m.MailDelivered("sent")
		m.RegistrationStep("start", "ok")
		m.SessionIssued("default")
	})
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/def", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/users/{id}", "418")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.OTPIssued("issued")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `thelyst_otp_issued_total{outcome="issued"} 1`)
}
