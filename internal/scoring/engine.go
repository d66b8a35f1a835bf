// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

// Package scoring ranks aggregated items by blending source relevance with
// a session's learned preferences:
//
//	finalScore = baseRelevance + alpha * boost/(1+|boost|)
//
// Scoring is pure: identical inputs always produce the identical order.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/trendloom/internal/models"
)

// Preferences is the read side of a preference vector.
type Preferences interface {
	Weight(t models.PreferenceType, value string) float64
}

// Config configures the engine.
type Config struct {
	// Alpha is the blend weight of the normalized preference boost. The
	// normalized boost lies in (-1, 1), so with Alpha below 1 preferences
	// shift but never fully override relevance.
	Alpha float64

	// DefaultRelevance is used for items without a source relevance.
	DefaultRelevance float64
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{Alpha: 0.5, DefaultRelevance: 0.5}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must not be negative, got %v", c.Alpha)
	}
	if c.DefaultRelevance < 0 || c.DefaultRelevance > 1 {
		return fmt.Errorf("default relevance must be within [0, 1], got %v", c.DefaultRelevance)
	}
	return nil
}

// Options adjust a single Score call.
type Options struct {
	// IgnoreBaseRelevance scores every item at DefaultRelevance so the order
	// is driven by preferences alone.
	IgnoreBaseRelevance bool
}

// Engine scores items.
type Engine struct {
	cfg Config
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Score returns items ranked by FinalScore, descending. Ties prefer more
// populated fields, then ascending ID. A nil prefs is neutral. The input
// slice is not modified.
func (e *Engine) Score(items []models.Item, prefs Preferences, query string, opts Options) []models.ScoredItem {
	queryKeywords := models.Keywords(query)

	out := make([]models.ScoredItem, len(items))
	for i := range items {
		item := items[i]

		base := e.cfg.DefaultRelevance
		if !opts.IgnoreBaseRelevance && item.Relevance != nil {
			base = *item.Relevance
		}

		var boost float64
		if prefs != nil {
			boost = Boost(&item, prefs, queryKeywords)
		}
		norm := Normalize(boost)

		out[i] = models.ScoredItem{
			Item:            item,
			BaseRelevance:   base,
			PreferenceBoost: boost,
			PreferenceScore: norm,
			FinalScore:      base + e.cfg.Alpha*norm,
			Social:          item.Social,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if pa, pb := a.Item.Populated(), b.Item.Populated(); pa != pb {
			return pa > pb
		}
		return a.Item.ID < b.Item.ID
	})
	return out
}

// Boost sums the preference weights of the item's brand, category and
// matched keywords. With query keywords present, matched keywords are the
// query keywords found in the item's title, category or brand; without,
// they are the title's keywords. Each keyword counts once.
func Boost(item *models.Item, prefs Preferences, queryKeywords []string) float64 {
	boost := models.SaturatingAdd(prefs.Weight(models.PreferenceBrand, item.Brand),
		prefs.Weight(models.PreferenceCategory, item.Category))

	for _, kw := range matchedKeywords(item, queryKeywords) {
		boost = models.SaturatingAdd(boost, prefs.Weight(models.PreferenceKeyword, kw))
	}
	return boost
}

func matchedKeywords(item *models.Item, queryKeywords []string) []string {
	if len(queryKeywords) == 0 {
		return models.Keywords(item.Title)
	}

	itemKeywords := models.Keywords(strings.Join([]string{item.Title, item.Category, item.Brand}, " "))
	present := make(map[string]struct{}, len(itemKeywords))
	for _, kw := range itemKeywords {
		present[kw] = struct{}{}
	}

	matched := make([]string, 0, len(queryKeywords))
	for _, kw := range queryKeywords {
		if _, ok := present[kw]; ok {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Normalize maps an unbounded boost into (-1, 1). Infinite boosts saturate
// to ±1 and NaN maps to zero.
func Normalize(boost float64) float64 {
	switch {
	case math.IsNaN(boost):
		return 0
	case math.IsInf(boost, 1):
		return 1
	case math.IsInf(boost, -1):
		return -1
	}
	if boost < 0 {
		return boost / (1 - boost)
	}
	return boost / (1 + boost)
}
