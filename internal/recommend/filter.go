// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package recommend

import (
	"fmt"
	"strings"

	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/validation"
)

// Filters narrows search results before they are scored. Zero fields match
// everything. An item missing the attribute a filter inspects is kept.
type Filters struct {
	PriceMin *float64 `json:"price_min,omitempty" validate:"omitempty,gte=0"`
	PriceMax *float64 `json:"price_max,omitempty" validate:"omitempty,gte=0"`

	// Brand and Category match case-insensitive substrings.
	Brand    string `json:"brand,omitempty" validate:"max=128"`
	Category string `json:"category,omitempty" validate:"max=128"`

	// Keywords keeps items whose title or description contains any of them.
	Keywords []string `json:"keywords,omitempty" validate:"max=10,dive,max=64"`

	// ExcludeKeywords drops items whose title or description contains any of them.
	ExcludeKeywords []string `json:"exclude_keywords,omitempty" validate:"max=10,dive,max=64"`
}

// normalize validates f and returns a lowercased copy with blank keywords
// dropped, or nil when f matches everything.
func (f *Filters) normalize() (*Filters, error) {
	if verr := validation.ValidateStruct(f); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, verr.Error())
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return nil, fmt.Errorf("%w: price_min must not exceed price_max", ErrInvalidQuery)
	}

	n := &Filters{
		PriceMin:        f.PriceMin,
		PriceMax:        f.PriceMax,
		Brand:           strings.ToLower(strings.TrimSpace(f.Brand)),
		Category:        strings.ToLower(strings.TrimSpace(f.Category)),
		Keywords:        lowerAll(f.Keywords),
		ExcludeKeywords: lowerAll(f.ExcludeKeywords),
	}
	if n.PriceMin == nil && n.PriceMax == nil && n.Brand == "" && n.Category == "" &&
		len(n.Keywords) == 0 && len(n.ExcludeKeywords) == 0 {
		return nil, nil
	}
	return n, nil
}

// apply returns the matching items in their original order. items is never
// modified; it may be shared with the trend cache.
func (f *Filters) apply(items []models.Item) []models.Item {
	out := make([]models.Item, 0, len(items))
	for i := range items {
		if f.match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func (f *Filters) match(item *models.Item) bool {
	if item.Price != nil {
		if f.PriceMin != nil && *item.Price < *f.PriceMin {
			return false
		}
		if f.PriceMax != nil && *item.Price > *f.PriceMax {
			return false
		}
	}
	if f.Brand != "" && item.Brand != "" && !strings.Contains(strings.ToLower(item.Brand), f.Brand) {
		return false
	}
	if f.Category != "" && item.Category != "" && !strings.Contains(strings.ToLower(item.Category), f.Category) {
		return false
	}

	if len(f.Keywords) == 0 && len(f.ExcludeKeywords) == 0 {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Description)
	if len(f.Keywords) > 0 && !containsAny(text, f.Keywords) {
		return false
	}
	return !containsAny(text, f.ExcludeKeywords)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	var out []string
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
