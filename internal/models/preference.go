// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package models

import "strings"

// PreferenceType is the attribute a preference bucket is keyed on.
type PreferenceType string

// Preference bucket types. Site buckets are reported in summaries but do
// not contribute to scoring.
const (
	PreferenceCategory PreferenceType = "category"
	PreferenceBrand    PreferenceType = "brand"
	PreferenceKeyword  PreferenceType = "keyword"
	PreferenceSite     PreferenceType = "site"
)

// Bucket is an (attribute-type, attribute-value) pair, e.g. brand=zara.
// Values are stored lower-cased so lookups are case-insensitive.
type Bucket struct {
	Type  PreferenceType `json:"type"`
	Value string         `json:"value"`
}

// NewBucket builds a bucket with a normalized value.
func NewBucket(t PreferenceType, value string) Bucket {
	return Bucket{Type: t, Value: strings.ToLower(strings.TrimSpace(value))}
}

// PreferenceWeight is a learned affinity for one (session, type, value) triple.
type PreferenceWeight struct {
	SessionID string         `json:"session_id"`
	Type      PreferenceType `json:"preference_type"`
	Value     string         `json:"preference_value"`
	Weight    float64        `json:"weight"`
}
