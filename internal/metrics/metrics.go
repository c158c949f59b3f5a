// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation service:
// - API endpoint latency and throughput
// - Recommendation pipeline outcomes (personalized vs fallback)
// - Inverted index rebuilds
// - Feature refresh runs
// - Cache efficiency
// - Circuit breaker state for the room catalog

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Pipeline Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation requests served",
		},
		[]string{"source"}, // "personalized", "popular", "keyword", "cache"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates",
			Help:    "Number of candidates recalled before ranking",
			Buckets: []float64{5, 10, 20, 50, 100, 250, 500, 1000},
		},
	)

	// Inverted Index Metrics
	IndexRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "index_rebuild_duration_seconds",
			Help:    "Duration of inverted index rebuilds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	IndexedRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_rooms",
			Help: "Number of rooms in the current inverted index snapshot",
		},
	)

	IndexVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_version",
			Help: "Monotonic version of the published index snapshot",
		},
	)

	// Feature Refresh Metrics
	FeatureRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feature_refresh_duration_seconds",
			Help:    "Duration of feature refresh runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	FeatureRefreshRooms = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_refresh_rooms_total",
			Help: "Total number of rooms whose features were regenerated",
		},
	)

	FeatureRefreshErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_refresh_errors_total",
			Help: "Total number of feature refresh errors",
		},
		[]string{"error_type"}, // "catalog", "store"
	)

	// Profile / Feedback Metrics
	ProfileUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Total number of user preference profile updates",
		},
	)

	BehaviorsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "behaviors_recorded_total",
			Help: "Total number of user behavior events recorded",
		},
		[]string{"action"}, // "click", "view", "search", "book"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "recommendation", "popular"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or invalidation)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mysql_query_duration_seconds",
			Help:    "Duration of room catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mysql_query_errors_total",
			Help: "Total number of room catalog query errors",
		},
		[]string{"operation"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records one served recommendation list and its source.
func RecordRecommendation(source string, candidates int, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(source).Inc()
	RecommendationDuration.Observe(duration.Seconds())
	if candidates > 0 {
		RecommendationCandidates.Observe(float64(candidates))
	}
}

// RecordIndexRebuild records one index rebuild and the resulting snapshot size.
func RecordIndexRebuild(duration time.Duration, rooms int, version int64) {
	IndexRebuildDuration.Observe(duration.Seconds())
	IndexedRooms.Set(float64(rooms))
	IndexVersion.Set(float64(version))
}

// RecordFeatureRefresh records one feature refresh run.
func RecordFeatureRefresh(duration time.Duration, rooms int, err error) {
	FeatureRefreshDuration.Observe(duration.Seconds())
	FeatureRefreshRooms.Add(float64(rooms))
	if err != nil {
		FeatureRefreshErrors.WithLabelValues("store").Inc()
	}
}

// RecordDBQuery records a room catalog query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
