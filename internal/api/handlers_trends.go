// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/recommend"
)

// listParams are the query parameters shared by every trend endpoint.
type listParams struct {
	// Limit further truncates the mode's result cap. Zero keeps the cap.
	Limit int `validate:"gte=0,lte=100"`
}

// parseListParams reads and validates the shared parameters.
func parseListParams(w http.ResponseWriter, r *http.Request) (listParams, bool) {
	p := listParams{Limit: getIntParam(r, "limit", 0)}
	if apiErr := validateRequest(&p); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return p, false
	}
	return p, true
}

// sessionParam returns the optional session_id query parameter.
func sessionParam(r *http.Request) string {
	return r.URL.Query().Get("session_id")
}

// respondRecommendation writes a ranked response, applying the limit.
func respondRecommendation(w http.ResponseWriter, resp *recommend.Response, p listParams, start time.Time) {
	if p.Limit > 0 && len(resp.Items) > p.Limit {
		resp.Items = resp.Items[:p.Limit]
		resp.Count = len(resp.Items)
	}
	respondSuccess(w, http.StatusOK, resp, start, resp.Stale)
}

// parseFilters reads the optional search filters. Price bounds that are
// not numbers are rejected here; the service validates the rest.
func parseFilters(w http.ResponseWriter, r *http.Request) (recommend.Filters, bool) {
	q := r.URL.Query()
	f := recommend.Filters{
		Brand:           q.Get("brand"),
		Category:        q.Get("category"),
		Keywords:        parseCommaSeparated(q.Get("keywords")),
		ExcludeKeywords: parseCommaSeparated(q.Get("exclude_keywords")),
	}

	var err error
	if f.PriceMin, err = getFloatParam(r, "price_min"); err == nil {
		f.PriceMax, err = getFloatParam(r, "price_max")
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    ErrCodeValidation,
			Message: "price_min and price_max must be numbers",
		}, err)
		return f, false
	}
	return f, true
}

// Search handles GET /api/v1/search?q=...&session_id=...&include_trends=true
//
// Optional filters: price_min, price_max, brand, category, keywords and
// exclude_keywords (comma-separated).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseListParams(w, r)
	if !ok {
		return
	}
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}

	req := recommend.Search{
		Query:         r.URL.Query().Get("q"),
		IncludeTrends: getBoolParam(r, "include_trends", false),
		Filters:       filters,
	}
	resp, err := h.svc.Search(r.Context(), req, sessionParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondRecommendation(w, resp, p, start)
}

// Trending handles GET /api/v1/trending
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseListParams(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.Trending(r.Context(), sessionParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondRecommendation(w, resp, p, start)
}

// Seasonal handles GET /api/v1/seasonal/{season}
func (h *Handler) Seasonal(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseListParams(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.SeasonalTrends(r.Context(), chi.URLParam(r, "season"), sessionParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondRecommendation(w, resp, p, start)
}

// Inspiration handles GET /api/v1/inspiration?keywords=boho,linen
func (h *Handler) Inspiration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseListParams(w, r)
	if !ok {
		return
	}

	keywords := parseCommaSeparated(r.URL.Query().Get("keywords"))
	resp, err := h.svc.Inspiration(r.Context(), keywords, sessionParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondRecommendation(w, resp, p, start)
}

// Brand handles GET /api/v1/brands/{brand}
func (h *Handler) Brand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseListParams(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.BrandTrends(r.Context(), chi.URLParam(r, "brand"), sessionParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondRecommendation(w, resp, p, start)
}

// Recommendations handles GET /api/v1/sessions/{sessionID}/recommendations
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseListParams(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.Recommendations(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondRecommendation(w, resp, p, start)
}
