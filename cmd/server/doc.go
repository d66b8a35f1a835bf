// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Command server runs the Trendloom trend aggregation and recommendation API.

# Startup

 1. Configuration: koanf v2 layers built-in defaults, a YAML file
    (config.yaml, /etc/trendloom/config.yaml or CONFIG_PATH) and
    environment variables, highest last.
 2. Feedback ledger: BadgerDB at FEEDBACK_DB_PATH, or in memory with
    FEEDBACK_IN_MEMORY=true.
 3. Sources: one JSON search client per entry under sources:, each behind
    the per-source rate limiter and an optional circuit breaker.
 4. Trend cache, aggregator, preference model, scoring engine and the
    recommendation service.
 5. chi router with CORS, per-IP rate limiting, request IDs, access logs
    and Prometheus metrics at /metrics.

# Supervision

	trendloom
	├── maintenance-layer
	│   ├── cache-janitor      every CACHE_CLEANUP_INTERVAL
	│   └── retention-janitor  every FEEDBACK_JANITOR_INTERVAL, if FEEDBACK_ARCHIVE_AFTER > 0
	└── api-layer
	    └── http-server

SIGINT or SIGTERM cancels the tree; the HTTP server drains for up to
HTTP_SHUTDOWN_TIMEOUT and the feedback store is closed last.

# Example

	cat > config.yaml <<EOF
	sources:
	  - name: zalando
	    kind: ecommerce
	    endpoint: http://scraper:9000/zalando/search
	  - name: pinterest
	    kind: social
	    endpoint: http://scraper:9000/pinterest/search
	    query_style: hashtag
	EOF
	FEEDBACK_DB_PATH=./data/feedback LOG_FORMAT=console ./server
*/
package main
