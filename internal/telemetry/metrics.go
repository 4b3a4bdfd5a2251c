// Package telemetry provides observability primitives for the stockroom API.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ActiveRequests     prometheus.Gauge
	ResponseCacheHits  prometheus.Counter
	ResponseCacheMiss  prometheus.Counter
	InvalidationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockroom",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "stockroom",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stockroom",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),

		ResponseCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockroom",
			Name:      "response_cache_hits_total",
			Help:      "Total request-boundary cache hits.",
		}),

		ResponseCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockroom",
			Name:      "response_cache_misses_total",
			Help:      "Total request-boundary cache misses.",
		}),

		InvalidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockroom",
			Name:      "cache_invalidations_total",
			Help:      "Total cache invalidation calls by entity family.",
		}, []string{"entity"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.ResponseCacheHits,
		m.ResponseCacheMiss,
		m.InvalidationsTotal,
	)
	return m
}
