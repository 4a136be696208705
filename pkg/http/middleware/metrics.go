package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendpulse",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method", "class"},
	)

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "trendpulse",
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served.",
		},
		[]string{"route"},
	)

	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendpulse",
			Name:      "http_response_size_bytes",
			Help:      "HTTP response body size.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"route", "class"},
	)

	regOnce sync.Once
)

// EchoMetrics records request metrics labelled by the registered route
// template (c.Path()) so label cardinality stays bounded. The vectors are
// registered on reg the first time the middleware is built.
func EchoMetrics(reg prometheus.Registerer) echo.MiddlewareFunc {
	regOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(httpRequestsTotal, httpRequestDuration, httpInFlight, httpResponseSize)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeLabel(c)
			method := c.Request().Method
			httpInFlight.WithLabelValues(route).Inc()
			defer httpInFlight.WithLabelValues(route).Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				// render now so the recorded status is final
				c.Error(err)
			}

			code := c.Response().Status
			class := statusClass(code)
			httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			httpRequestDuration.WithLabelValues(route, method, class).Observe(time.Since(start).Seconds())
			httpResponseSize.WithLabelValues(route, class).Observe(float64(c.Response().Size))
			return nil
		}
	}
}

// routeLabel prefers the route template; unmatched requests share one label.
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
