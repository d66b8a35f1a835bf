// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide (it caches struct
// metadata) and carries the custom tags used by Trendloom:
//
//   - sessionid: 1-128 characters of [A-Za-z0-9_-]
//   - feedbacktype: like, dislike, save or view
//   - season: spring, summer, fall, autumn or winter (case-insensitive)
//
// Example:
//
//	type FeedbackRequest struct {
//	    SessionID string `validate:"required,sessionid"`
//	    Type      string `validate:"required,feedbacktype"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/trendloom/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Seasons lists the recognized season names. "autumn" is accepted as an
// alias for "fall".
var Seasons = []string{"spring", "summer", "fall", "winter"}

// NormalizeSeason lower-cases a season name and resolves aliases.
// It returns false for unknown seasons.
func NormalizeSeason(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "autumn" {
		s = "fall"
	}
	for _, known := range Seasons {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// ValidSessionID reports whether id is an acceptable session identifier.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// Error returns the human-readable message.
func (e *FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects the field failures of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

// Error joins the field messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i := range ve.Fields {
		messages[i] = ve.Fields[i].Message
	}
	return strings.Join(messages, "; ")
}

// ToAPIError converts the failures into the API error envelope.
func (ve *RequestValidationError) ToAPIError() *models.APIError {
	if len(ve.Fields) == 0 {
		return &models.APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	}

	if len(ve.Fields) == 1 {
		fe := ve.Fields[0]
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: fe.Message,
			Details: map[string]interface{}{"field": fe.Field, "tag": fe.Tag},
		}
	}

	fields := make([]map[string]interface{}, len(ve.Fields))
	for i, fe := range ve.Fields {
		fields[i] = map[string]interface{}{"field": fe.Field, "tag": fe.Tag, "message": fe.Message}
	}
	return &models.APIError{
		Code:    "VALIDATION_ERROR",
		Message: ve.Error(),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("sessionid", func(fl validator.FieldLevel) bool {
			return ValidSessionID(fl.Field().String())
		})
		_ = validate.RegisterValidation("feedbacktype", func(fl validator.FieldLevel) bool {
			return models.FeedbackType(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("season", func(fl validator.FieldLevel) bool {
			_, ok := NormalizeSeason(fl.Field().String())
			return ok
		})
	})
	return validate
}

// ValidateStruct validates s. It returns nil on success.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{Fields: fields}
}

var errorMessageTemplates = map[string]string{
	"required":     "%s is required",
	"sessionid":    "%s must be 1-128 characters of letters, digits, '-' or '_'",
	"feedbacktype": "%s must be one of: like, dislike, save, view",
	"season":       "%s must be one of: spring, summer, fall, winter",
	"url":          "%s must be a valid URL",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
