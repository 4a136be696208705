package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendpulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of trend API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpulse",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by trend API endpoint",
		},
		[]string{"endpoint"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpulse",
			Subsystem: "api",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by endpoint and result (hit, miss)",
		},
		[]string{"endpoint", "result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, CacheLookups)
	})
}
