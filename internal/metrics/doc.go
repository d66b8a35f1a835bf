// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - trendloom_api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - trendloom_api_request_duration_seconds: Request latency (histogram)
  - trendloom_api_active_requests: In-flight requests (gauge)
  - trendloom_api_rate_limit_hits_total: Rejected by the API limiter (counter)

Source Metrics:
  - trendloom_source_fetch_total{source,outcome}
  - trendloom_source_fetch_duration_seconds{source}
  - trendloom_ratelimit_wait_seconds{source}
  - trendloom_ratelimit_delay_seconds{source}
  - trendloom_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - trendloom_circuit_breaker_requests_total{name,result}
  - trendloom_circuit_breaker_transitions_total{name,from,to}

Cache and Aggregation Metrics:
  - trendloom_cache_lookups_total{purpose,result}: hit, miss, stale
  - trendloom_cache_entries
  - trendloom_aggregate_sources_total{source,outcome}: ok, stale, failed, timeout

Feedback and Preference Metrics:
  - trendloom_feedback_events_total{type,outcome}
  - trendloom_ledger_conflicts_total
  - trendloom_ledger_pruned_total
  - trendloom_preference_memo_total{result}

Recommendation Metrics:
  - trendloom_recommend_requests_total{mode,outcome}
  - trendloom_recommend_duration_seconds{mode}
  - trendloom_recommend_degraded_total{mode}
  - trendloom_janitor_runs_total{job,outcome}

# Example Queries

Degraded response ratio for trending:

	rate(trendloom_recommend_degraded_total{mode="trending"}[5m])
	  / rate(trendloom_recommend_requests_total{mode="trending"}[5m])

Cache hit rate:

	sum(rate(trendloom_cache_lookups_total{result="hit"}[5m]))
	  / sum(rate(trendloom_cache_lookups_total[5m]))
*/
package metrics
