// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendloom_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendloom_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_api_rate_limit_hits_total",
			Help: "Total number of API requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Source Metrics
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_source_fetch_total",
			Help: "Total number of upstream source fetches",
		},
		[]string{"source", "outcome"}, // "ok", "empty", "rate_limited", "unavailable"
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendloom_source_fetch_duration_seconds",
			Help:    "Duration of upstream source fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	RateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendloom_ratelimit_wait_seconds",
			Help:    "Time callers waited for a source rate limit slot",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	RateLimitDelay = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendloom_ratelimit_delay_seconds",
			Help: "Current inter-request delay per source, including failure backoff",
		},
		[]string{"source"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendloom_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_circuit_breaker_requests_total",
			Help: "Total requests through a circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Trend Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_cache_lookups_total",
			Help: "Trend cache lookups by purpose and result",
		},
		[]string{"purpose", "result"}, // "hit", "miss", "stale"
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendloom_cache_entries",
			Help: "Current number of cached result sets",
		},
	)

	AggregateSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_aggregate_sources_total",
			Help: "Per-source outcomes of aggregation requests",
		},
		[]string{"source", "outcome"}, // "ok", "stale", "failed", "timeout"
	)

	// Feedback Metrics
	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_feedback_events_total",
			Help: "Feedback submissions by type and outcome",
		},
		[]string{"type", "outcome"}, // "ok", "invalid", "error"
	)

	LedgerConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trendloom_ledger_conflicts_total",
			Help: "Feedback writes retried after a transaction conflict",
		},
	)

	LedgerPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trendloom_ledger_pruned_total",
			Help: "Feedback events removed by retention",
		},
	)

	PreferenceMemo = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_preference_memo_total",
			Help: "Preference vector memo lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_recommend_requests_total",
			Help: "Recommendation requests by mode and outcome",
		},
		[]string{"mode", "outcome"}, // "ok", "degraded", "invalid", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendloom_recommend_duration_seconds",
			Help:    "Recommendation pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"mode"},
	)

	RecommendDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_recommend_degraded_total",
			Help: "Recommendation responses served with at least one failed source",
		},
		[]string{"mode"},
	)

	// Maintenance Metrics
	JanitorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendloom_janitor_runs_total",
			Help: "Maintenance job runs",
		},
		[]string{"job", "outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAPIRateLimitHit counts a request rejected by the API rate limiter.
func RecordAPIRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordSourceFetch records one upstream fetch.
func RecordSourceFetch(source, outcome string, duration time.Duration) {
	SourceFetchTotal.WithLabelValues(source, outcome).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRateLimitWait records how long a caller waited for a slot.
func RecordRateLimitWait(source string, wait time.Duration) {
	RateLimitWaitSeconds.WithLabelValues(source).Observe(wait.Seconds())
}

// SetRateLimitBackoff publishes the current delay of a source.
func SetRateLimitBackoff(source string, delay time.Duration) {
	RateLimitDelay.WithLabelValues(source).Set(delay.Seconds())
}

// RecordCacheLookup counts a trend cache lookup.
func RecordCacheLookup(purpose, result string) {
	CacheLookups.WithLabelValues(purpose, result).Inc()
}

// SetCacheEntries publishes the number of cached result sets.
func SetCacheEntries(n int) {
	CacheEntries.Set(float64(n))
}

// RecordAggregateSource counts one source outcome of an aggregation.
func RecordAggregateSource(source, outcome string) {
	AggregateSources.WithLabelValues(source, outcome).Inc()
}

// RecordFeedbackEvent counts a feedback submission.
func RecordFeedbackEvent(feedbackType, outcome string) {
	if feedbackType == "" {
		feedbackType = "unknown"
	}
	FeedbackEvents.WithLabelValues(feedbackType, outcome).Inc()
}

// RecordLedgerConflict counts a retried write conflict.
func RecordLedgerConflict() {
	LedgerConflicts.Inc()
}

// RecordLedgerPruned counts events removed by retention.
func RecordLedgerPruned(n int) {
	LedgerPruned.Add(float64(n))
}

// RecordPreferenceMemo counts a preference memo lookup.
func RecordPreferenceMemo(result string) {
	PreferenceMemo.WithLabelValues(result).Inc()
}

// RecordRecommendRequest records a served (or rejected) request.
func RecordRecommendRequest(mode, outcome string, duration time.Duration) {
	RecommendRequests.WithLabelValues(mode, outcome).Inc()
	if outcome != "invalid" {
		RecommendDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// RecordRecommendDegraded counts a degraded response.
func RecordRecommendDegraded(mode string) {
	RecommendDegraded.WithLabelValues(mode).Inc()
}

// RecordJanitorRun counts a maintenance job run.
func RecordJanitorRun(job string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	JanitorRuns.WithLabelValues(job, outcome).Inc()
}
