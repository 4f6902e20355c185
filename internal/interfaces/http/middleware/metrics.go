// Package middleware provides HTTP middleware for the back-office API.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "backoffice"

// HTTPMetrics holds Prometheus metrics for HTTP request tracking
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	ResponseSize    *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics on the given registry
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			// PDF rendering pushes the tail well past the default buckets
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route", "status_code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		ResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 9),
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being processed.",
		}),
	}

	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.ResponseSize, m.InFlight)
	return m
}

// Middleware records HTTP metrics. It skips /metrics and /health.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/metrics" || strings.HasPrefix(path, "/health") {
			c.Next()
			return
		}

		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		c.Next()

		route := getRoutePattern(c)
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		if size := c.Writer.Size(); size > 0 {
			m.ResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

// getRoutePattern returns the matched route template, keeping label
// cardinality bounded (client ids and signing tokens are not labels)
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// HTTPMetricsStatusGroup returns the status code class ("2xx", "4xx", ...)
func HTTPMetricsStatusGroup(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	case statusCode >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
