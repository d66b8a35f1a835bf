// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint responds with.
//
// Status is "success" or "error". On error, Error carries the details and
// Data is null.
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"mode": "trending", "items": [...], "degraded": true},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 412}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response timing. Stale is set when any part of the
// payload was served from an expired cache entry.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Stale       bool      `json:"stale,omitempty"`
}

// APIError is a machine-readable error description.
//
// Codes:
//   - INVALID_QUERY: malformed query, unknown season, missing session
//   - INVALID_FEEDBACK: feedback event rejected by validation
//   - VALIDATION_ERROR: malformed request body or parameters
//   - INTERNAL_ERROR: unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Sources []string `json:"sources"`
	Uptime  float64  `json:"uptime_seconds"`
}
