package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observationsSent *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastValue        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	anomalies        *prometheus.CounterVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		observationsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_observations_sent_total",
				Help: "Total number of observations sent to backend",
			},
			[]string{"backend", "indicator"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trendpulse_last_value",
				Help: "Last recorded value for an indicator",
			},
			[]string{"indicator"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_analyses_total",
				Help: "Trend analyses by method and resulting direction",
			},
			[]string{"method", "direction"},
		),
		anomalies: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_anomalies_flagged_total",
				Help: "Observations flagged as anomalous by the estimator",
			},
			[]string{"indicator"},
		),
	}
}

// RecordObservationSent records an observation sent to a backend.
func (r *Recorder) RecordObservationSent(backend, indicator string) {
	r.observationsSent.WithLabelValues(backend, indicator).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastValue records the last value of an indicator.
func (r *Recorder) RecordLastValue(indicator string, value float64) {
	r.lastValue.WithLabelValues(indicator).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordAnalysis counts a completed analysis.
func (r *Recorder) RecordAnalysis(method, direction string) {
	r.analyses.WithLabelValues(method, direction).Inc()
}

// RecordAnomalies adds n flagged observations for indicator.
func (r *Recorder) RecordAnomalies(indicator string, n int) {
	if n > 0 {
		r.anomalies.WithLabelValues(indicator).Add(float64(n))
	}
}
