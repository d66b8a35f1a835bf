// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package preference

import (
	"sort"
	"strings"

	"github.com/tomtom215/trendloom/internal/models"
)

// Vector is an immutable map from bucket to weight.
type Vector struct {
	session string
	weights map[models.Bucket]float64
}

func emptyVector(session string) *Vector {
	return &Vector{session: session, weights: map[models.Bucket]float64{}}
}

// NewVector builds a vector from explicit weights. Bucket values are
// normalized with models.NewBucket.
func NewVector(session string, weights map[models.Bucket]float64) *Vector {
	v := emptyVector(session)
	for b, w := range weights {
		accumulate(v.weights, models.NewBucket(b.Type, b.Value), w)
	}
	return v
}

// Session returns the session the vector belongs to.
func (v *Vector) Session() string {
	return v.session
}

// Weight returns the weight of b, zero when absent. Values are matched
// case-insensitively.
func (v *Vector) Weight(t models.PreferenceType, value string) float64 {
	if v == nil || len(v.weights) == 0 || value == "" {
		return 0
	}
	return v.weights[models.Bucket{Type: t, Value: strings.ToLower(strings.TrimSpace(value))}]
}

// Len returns the number of buckets.
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.weights)
}

// Weights returns all buckets ordered by type, then weight descending,
// then value.
func (v *Vector) Weights() []models.PreferenceWeight {
	out := make([]models.PreferenceWeight, 0, v.Len())
	if v == nil {
		return out
	}
	for b, w := range v.weights {
		out = append(out, models.PreferenceWeight{SessionID: v.session, Type: b.Type, Value: b.Value, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return byWeight(out[i], out[j])
	})
	return out
}

// Top returns the n heaviest buckets of type t. A non-positive n returns
// every bucket of that type.
func (v *Vector) Top(t models.PreferenceType, n int) []models.PreferenceWeight {
	out := []models.PreferenceWeight{}
	if v == nil {
		return out
	}
	for b, w := range v.weights {
		if b.Type == t {
			out = append(out, models.PreferenceWeight{SessionID: v.session, Type: b.Type, Value: b.Value, Weight: w})
		}
	}
	sort.Slice(out, func(i, j int) bool { return byWeight(out[i], out[j]) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

//nolint:gocritic // hugeParam: weights compared by value
func byWeight(a, b models.PreferenceWeight) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return a.Value < b.Value
}
