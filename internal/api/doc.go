// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package api serves the recommendation service over HTTP with go-chi/chi.

# Endpoints

	GET  /api/v1/health                               service status and sources
	GET  /api/v1/health/live                          liveness probe
	GET  /api/v1/search?q=&include_trends=            keyword search
	GET  /api/v1/trending                             social trend aggregate
	GET  /api/v1/seasonal/{season}                    spring, summer, fall (autumn), winter
	GET  /api/v1/inspiration?keywords=a,b,c           up to three keywords
	GET  /api/v1/brands/{brand}                       brand trend aggregate
	POST /api/v1/feedback                             record like, dislike, save or view
	GET  /api/v1/sessions/{sessionID}/recommendations ranked purely by learned preference
	GET  /api/v1/sessions/{sessionID}/preferences     preference summary
	GET  /metrics                                     Prometheus exposition

Trend endpoints accept an optional session_id, which personalizes ranking,
and limit (1-100), which truncates the mode's result cap.

# Response Envelope

Every JSON endpoint answers with models.APIResponse. Source failures never
fail a request: the payload's degraded flag and failed_sources list report
them, and metadata.stale marks results served from expired cache entries.

Error codes:

  - INVALID_QUERY (400): missing or oversized query, unknown season, bad session id
  - INVALID_FEEDBACK (400): feedback event failed validation
  - VALIDATION_ERROR (400): malformed body or parameters
  - TOO_MANY_REQUESTS (429): inbound rate limit
  - TIMEOUT (504), INTERNAL_ERROR (500)
*/
package api
