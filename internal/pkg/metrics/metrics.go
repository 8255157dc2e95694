package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. All recording
// methods are safe to call on a nil *Metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	OTPIssuedTotal        *prometheus.CounterVec
	OTPVerificationsTotal *prometheus.CounterVec
	MailDeliveriesTotal   *prometheus.CounterVec
	RegistrationsTotal    *prometheus.CounterVec
	SessionsIssuedTotal   *prometheus.CounterVec
}

// New creates and registers all collectors on registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thelyst_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thelyst_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		OTPIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thelyst_otp_issued_total",
				Help: "One-time codes issued, by outcome",
			},
			[]string{"outcome"},
		),
		OTPVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thelyst_otp_verifications_total",
				Help: "One-time code verifications, by result",
			},
			[]string{"result"},
		),
		MailDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thelyst_mail_deliveries_total",
				Help: "Verification emails handed to the relay, by status",
			},
			[]string{"status"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thelyst_registrations_total",
				Help: "Registration steps, by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		SessionsIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thelyst_sessions_issued_total",
				Help: "Sessions issued, by lifetime",
			},
			[]string{"lifetime"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OTPIssuedTotal,
		m.OTPVerificationsTotal,
		m.MailDeliveriesTotal,
		m.RegistrationsTotal,
		m.SessionsIssuedTotal,
	)
	return m
}

func (m *Metrics) OTPIssued(outcome string) {
	if m == nil {
		return
	}
	m.OTPIssuedTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OTPVerified(result string) {
	if m == nil {
		return
	}
	m.OTPVerificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) MailDelivered(status string) {
	if m == nil {
		return
	}
	m.MailDeliveriesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RegistrationStep(step, outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) SessionIssued(lifetime string) {
	if m == nil {
		return
	}
	m.SessionsIssuedTotal.WithLabelValues(lifetime).Inc()
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if m == nil {
			return
		}

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
