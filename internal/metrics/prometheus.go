package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the leaguedash service

var (
	// Upstream API metrics
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaguedash_upstream_calls_total",
			Help: "Total number of fantasy API calls",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaguedash_upstream_call_duration_seconds",
			Help:    "Duration of fantasy API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaguedash_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaguedash_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	// Scoring metrics
	ScoreComputationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leaguedash_score_computations_total",
			Help: "Total number of composite score computations",
		},
	)

	ScoreComputationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaguedash_score_computation_duration_seconds",
			Help:    "Duration of composite score computations in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)

	// Refresh metrics
	RefreshOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaguedash_refresh_operations_total",
			Help: "Total number of season refresh operations",
		},
		[]string{"type", "status"},
	)

	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaguedash_refresh_duration_seconds",
			Help:    "Duration of season refresh operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"type"},
	)

	LastSuccessfulRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leaguedash_last_successful_refresh_timestamp",
			Help: "Timestamp of last successful refresh operation",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaguedash_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leaguedash_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordUpstreamCall records a fantasy API call metric
func RecordUpstreamCall(endpoint, status string, duration float64) {
	UpstreamCallsTotal.WithLabelValues(endpoint, status).Inc()
	UpstreamCallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCacheHit records a cache hit for a layer ("redis" or "postgres")
func RecordCacheHit(layer string) {
	CacheHitsTotal.WithLabelValues(layer).Inc()
}

// RecordCacheMiss records a cache miss for a layer
func RecordCacheMiss(layer string) {
	CacheMissesTotal.WithLabelValues(layer).Inc()
}

// RecordComputation records a composite score computation
func RecordComputation(duration float64) {
	ScoreComputationsTotal.Inc()
	ScoreComputationDuration.Observe(duration)
}

// RecordRefresh records a season refresh operation
func RecordRefresh(refreshType, status string, duration float64) {
	RefreshOperationsTotal.WithLabelValues(refreshType, status).Inc()
	RefreshDuration.WithLabelValues(refreshType).Observe(duration)

	if status == "success" {
		LastSuccessfulRefresh.SetToCurrentTime()
	}
}

// RecordHTTPRequest records a served HTTP request
func RecordHTTPRequest(route, status string) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}
