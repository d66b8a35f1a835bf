// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package models

import "strings"

// RawItem is a single record returned by a content source.
// SourceRank is 1-based; zero means the source did not report a rank.
type RawItem struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Price       *float64 `json:"price,omitempty"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	SourceRank  int      `json:"source_rank,omitempty"`
}

// Item is a canonical candidate fashion content unit.
//
// ID is derived from the canonical URL (see CanonicalID) so records from
// different sources describing the same page collapse to one Item.
// Relevance holds the source-intrinsic relevance in [0,1] when known.
type Item struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	SourceSite  string   `json:"source_site"`
	Sources     []string `json:"sources,omitempty"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Relevance   *float64 `json:"relevance,omitempty"`
	Social      bool     `json:"social"`
}

// NewItem converts a raw source record into an Item attributed to sourceSite.
// Surrounding whitespace is trimmed from text fields.
func NewItem(raw RawItem, sourceSite string, social bool) Item {
	item := Item{
		ID:          CanonicalID(raw.URL),
		URL:         strings.TrimSpace(raw.URL),
		Title:       strings.TrimSpace(raw.Title),
		SourceSite:  sourceSite,
		Sources:     []string{sourceSite},
		Category:    strings.TrimSpace(raw.Category),
		Brand:       strings.TrimSpace(raw.Brand),
		Description: strings.TrimSpace(raw.Description),
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Social:      social,
	}
	if raw.Price != nil {
		p := *raw.Price
		item.Price = &p
	}
	return item
}

// Populated counts the optional attributes carrying a value.
// Used to pick the richest record on merge and to break scoring ties.
func (i *Item) Populated() int {
	n := 0
	if i.Category != "" {
		n++
	}
	if i.Brand != "" {
		n++
	}
	if i.Price != nil {
		n++
	}
	if i.Description != "" {
		n++
	}
	if i.ImageURL != "" {
		n++
	}
	return n
}

// ScoredItem is an Item with its ranking breakdown.
//
// FinalScore = BaseRelevance + alpha * normalize(PreferenceBoost).
// PreferenceScore is the normalized boost the presentation layer shows.
type ScoredItem struct {
	Item            Item    `json:"item"`
	BaseRelevance   float64 `json:"base_relevance"`
	PreferenceBoost float64 `json:"preference_boost"`
	PreferenceScore float64 `json:"preference_score"`
	FinalScore      float64 `json:"final_score"`
	Social          bool    `json:"social"`
}
