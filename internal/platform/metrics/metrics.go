package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ApplicationTransitions *prometheus.CounterVec
	VerificationPolls      *prometheus.CounterVec
	ClaimDecodeFailures    prometheus.Counter
	SigningOutcomes        *prometheus.CounterVec
	OffersIssued           prometheus.Counter
	DomainEvents           *prometheus.CounterVec
	BackendLatency         *prometheus.HistogramVec
	HTTPLatency            *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ApplicationTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_application_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"status"}),
		VerificationPolls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_verification_polls_total",
			Help: "Verification status polls by outcome",
		}, []string{"outcome"}),
		ClaimDecodeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "onboard_claim_decode_failures_total",
			Help: "Presentation entries skipped because they could not be decoded",
		}),
		SigningOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_signing_outcomes_total",
			Help: "Signing callbacks by resulting document status and error code",
		}, []string{"status", "error_code"}),
		OffersIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "onboard_credential_offers_issued_total",
			Help: "Credential offers created at the issuer",
		}),
		DomainEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_domain_events_total",
			Help: "Domain events dispatched by name",
		}, []string{"event"}),
		BackendLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboard_backend_request_duration_seconds",
			Help:    "Latency of calls to the verifier and issuer backends",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "operation", "outcome"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboard_http_request_duration_seconds",
			Help:    "Latency of inbound HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncApplicationTransition(status string) {
	if m == nil {
		return
	}
	m.ApplicationTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncVerificationPoll(outcome string) {
	if m == nil {
		return
	}
	m.VerificationPolls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddClaimDecodeFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ClaimDecodeFailures.Add(float64(n))
}

func (m *Metrics) IncSigningOutcome(status, errorCode string) {
	if m == nil {
		return
	}
	m.SigningOutcomes.WithLabelValues(status, errorCode).Inc()
}

func (m *Metrics) IncOffersIssued() {
	if m == nil {
		return
	}
	m.OffersIssued.Inc()
}

func (m *Metrics) IncDomainEvent(name string) {
	if m == nil {
		return
	}
	m.DomainEvents.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveBackend(backend, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(backend, operation, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}
