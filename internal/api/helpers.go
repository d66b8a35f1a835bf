// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendloom/internal/aggregate"
	"github.com/tomtom215/trendloom/internal/feedback"
	"github.com/tomtom215/trendloom/internal/logging"
	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/recommend"
	"github.com/tomtom215/trendloom/internal/validation"
)

// Error codes.
const (
	ErrCodeInvalidQuery     = "INVALID_QUERY"
	ErrCodeInvalidFeedback  = "INVALID_FEEDBACK"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// sanitizeLogValue replaces control characters so request data cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes the envelope with the given status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess writes a success envelope. start, when non-zero, fills
// the query time.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time, stale bool) {
	meta := models.Metadata{Timestamp: time.Now().UTC(), Stale: stale}
	if !start.IsZero() {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondError writes an error envelope. err, when set, is logged with the
// request's IDs but never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Str("code", apiErr.Code).Str("error", sanitizeLogValue(err.Error())).Msg("api error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	})
}

// respondServiceError maps a service error onto the API taxonomy.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidQuery), errors.Is(err, aggregate.ErrEmptyQuery):
		respondError(w, r, http.StatusBadRequest, &models.APIError{Code: ErrCodeInvalidQuery, Message: clientMessage(err)}, err)
	case errors.Is(err, feedback.ErrInvalidFeedbackEvent):
		respondError(w, r, http.StatusBadRequest, &models.APIError{Code: ErrCodeInvalidFeedback, Message: clientMessage(err)}, err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, &models.APIError{Code: ErrCodeTimeout, Message: "Request timed out"}, err)
	default:
		respondError(w, r, http.StatusInternalServerError, &models.APIError{Code: ErrCodeInternal, Message: "Internal server error"}, err)
	}
}

// clientMessage returns the user-facing part of a validation error. These
// errors carry only input-derived text, never internal detail.
func clientMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// validateRequest validates v with the shared validator.
func validateRequest(v interface{}) *models.APIError {
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr.ToAPIError()
	}
	return nil
}

// decodeJSONBody decodes a bounded JSON body into v.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// getIntParam extracts an integer query parameter, falling back to
// defaultValue when it is missing or malformed.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getFloatParam extracts an optional finite float query parameter. A
// missing parameter yields nil.
func getFloatParam(r *http.Request, key string) (*float64, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s: invalid number %q", key, value)
	}
	return &f, nil
}

// getBoolParam extracts a boolean query parameter.
func getBoolParam(r *http.Request, key string, defaultValue bool) bool {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// parseCommaSeparated splits a comma-separated value, dropping blanks.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
