// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/trendloom/internal/models"
)

// Health handles GET /api/v1/health
//
// The service is degraded when no content source is configured; requests
// still succeed but return empty results.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var names []string
	if h.sources != nil {
		names = h.sources.Names()
	}
	if names == nil {
		names = []string{}
	}

	status := "healthy"
	if len(names) == 0 {
		status = "degraded"
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:  status,
		Version: Version,
		Sources: names,
		Uptime:  time.Since(h.startTime).Seconds(),
	}, time.Time{}, false)
}

// HealthLive handles GET /api/v1/health/live. It answers as long as the
// process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Time{}, false)
}
