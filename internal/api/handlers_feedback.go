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

// feedbackCreated is the payload returned after recording feedback.
type feedbackCreated struct {
	Key string `json:"key"`
}

// Feedback handles POST /api/v1/feedback
//
// The body is a recommend.FeedbackInput. Field validation happens in the
// ledger so that every rejected event is reported as INVALID_FEEDBACK.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in recommend.FeedbackInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    ErrCodeValidation,
			Message: "Request body must be a JSON feedback object",
		}, err)
		return
	}

	key, err := h.svc.RecordFeedback(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, feedbackCreated{Key: key}, start, false)
}

// Preferences handles GET /api/v1/sessions/{sessionID}/preferences
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	summary, err := h.svc.PreferencesSummary(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, summary, start, false)
}
