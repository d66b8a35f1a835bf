// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FeedbackType identifies the kind of user interaction.
type FeedbackType string

// Feedback types recognized by the ledger.
const (
	FeedbackLike    FeedbackType = "like"
	FeedbackDislike FeedbackType = "dislike"
	FeedbackSave    FeedbackType = "save"
	FeedbackView    FeedbackType = "view"
)

// FeedbackTypes lists every valid FeedbackType in a stable order.
var FeedbackTypes = []FeedbackType{FeedbackLike, FeedbackDislike, FeedbackSave, FeedbackView}

// Valid reports whether t is a recognized feedback type.
func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackLike, FeedbackDislike, FeedbackSave, FeedbackView:
		return true
	default:
		return false
	}
}

// ParseFeedbackType parses a case-insensitive feedback type name.
func ParseFeedbackType(s string) (FeedbackType, error) {
	t := FeedbackType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown feedback type %q", s)
	}
	return t, nil
}

// FeedbackEvent is one recorded user interaction.
//
// Category, Brand, Price, Title and SourceSite are a snapshot of the item
// at interaction time; item metadata may change or disappear later.
// Value is the source of truth for the event's weight contribution and
// must lie within [-MaxFeedbackValue, MaxFeedbackValue].
type FeedbackEvent struct {
	ItemID       string       `json:"item_id" validate:"required,max=256"`
	FeedbackType FeedbackType `json:"feedback_type" validate:"required,feedbacktype"`
	Value        float64      `json:"value" validate:"gte=-10,lte=10"`
	SessionID    string       `json:"session_id" validate:"required,sessionid"`
	SearchQuery  string       `json:"search_query,omitempty" validate:"max=512"`
	Timestamp    time.Time    `json:"timestamp"`
	Category     string       `json:"category,omitempty"`
	Brand        string       `json:"brand,omitempty"`
	Price        *float64     `json:"price,omitempty" validate:"omitempty,gte=0"`
	Title        string       `json:"title,omitempty"`
	SourceSite   string       `json:"source_site,omitempty"`
}

// MaxFeedbackValue bounds the magnitude of FeedbackEvent.Value. Keep it in
// sync with the validate tag.
const MaxFeedbackValue = 10

// SaturatingAdd returns a+b clamped to the finite float64 range. A NaN
// operand contributes nothing.
func SaturatingAdd(a, b float64) float64 {
	if math.IsNaN(a) {
		a = 0
	}
	if math.IsNaN(b) {
		b = 0
	}
	return ClampFinite(a + b)
}

// ClampFinite maps ±Inf to ±MaxFloat64 and NaN to zero.
func ClampFinite(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return math.MaxFloat64
	case math.IsInf(x, -1):
		return -math.MaxFloat64
	default:
		return x
	}
}

// Key returns the identity of the event: at most one event is stored per
// (item, type, session).
func (e *FeedbackEvent) Key() string {
	return FeedbackKey(e.SessionID, e.ItemID, e.FeedbackType)
}

// FeedbackKey builds the storage key for an event identity.
// The session comes first so one session's events share a prefix.
func FeedbackKey(sessionID, itemID string, t FeedbackType) string {
	return FeedbackSessionPrefix(sessionID) + itemID + ":" + string(t)
}

// FeedbackPrefix is the key prefix shared by all feedback events.
const FeedbackPrefix = "feedback:"

// FeedbackSessionPrefix returns the key prefix for one session's events.
func FeedbackSessionPrefix(sessionID string) string {
	return FeedbackPrefix + sessionID + ":"
}
