package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	lookups          *prometheus.HistogramVec
	staleLookups     prometheus.Counter
	validationErrors *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	openSessions     prometheus.Gauge
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		lookups: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transferdesk_account_lookup_duration_seconds",
				Help:    "Recipient existence checks by result",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		staleLookups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transferdesk_account_lookup_stale_total",
				Help: "Existence check responses discarded because a newer check was issued",
			},
		),
		validationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transferdesk_validation_errors_total",
				Help: "Field validation failures",
			},
			[]string{"field", "code"},
		),
		dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transferdesk_dispatch_total",
				Help: "Signing dispatch attempts by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		openSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "transferdesk_sessions",
				Help: "Transfer sessions currently held in memory",
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transferdesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transferdesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordLookup records the result and duration of an existence check.
func (r *Recorder) RecordLookup(result string, seconds float64) {
	r.lookups.WithLabelValues(result).Observe(seconds)
}

// RecordStaleLookup counts a superseded existence check response.
func (r *Recorder) RecordStaleLookup() {
	r.staleLookups.Inc()
}

// RecordValidationError records a field validation failure.
func (r *Recorder) RecordValidationError(field, code string) {
	r.validationErrors.WithLabelValues(field, code).Inc()
}

// RecordDispatch records a dispatch outcome.
func (r *Recorder) RecordDispatch(backend, outcome string) {
	r.dispatches.WithLabelValues(backend, outcome).Inc()
}

// RecordSessions sets the number of live sessions.
func (r *Recorder) RecordSessions(open int) {
	r.openSessions.Set(float64(open))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
