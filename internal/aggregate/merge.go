// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package aggregate

import "github.com/tomtom215/trendloom/internal/models"

// Merge deduplicates items by ID across lists given in priority order.
//
// For each ID the record with the most populated optional fields wins;
// on a tie the earlier list wins. Empty fields of the winner are filled
// from the other records, Sources lists every contributor in priority
// order, Relevance keeps the maximum and Social is set if any contributor
// was social. Output follows first appearance. Inputs are not modified.
func Merge(lists ...[]models.Item) []models.Item {
	index := make(map[string]int)
	var out []models.Item

	for _, list := range lists {
		for i := range list {
			candidate := list[i]
			pos, seen := index[candidate.ID]
			if !seen {
				index[candidate.ID] = len(out)
				out = append(out, clone(candidate))
				continue
			}
			out[pos] = mergePair(out[pos], candidate)
		}
	}

	if out == nil {
		out = []models.Item{}
	}
	return out
}

// mergePair merges b into a, where a came from a higher-priority source.
//
//nolint:gocritic // hugeParam: items are merged by value
func mergePair(a, b models.Item) models.Item {
	base, other := a, b
	if b.Populated() > a.Populated() {
		base, other = clone(b), a
	}

	if base.Title == "" {
		base.Title = other.Title
	}
	if base.Category == "" {
		base.Category = other.Category
	}
	if base.Brand == "" {
		base.Brand = other.Brand
	}
	if base.Price == nil && other.Price != nil {
		p := *other.Price
		base.Price = &p
	}
	if base.Description == "" {
		base.Description = other.Description
	}
	if base.ImageURL == "" {
		base.ImageURL = other.ImageURL
	}

	if other.Relevance != nil && (base.Relevance == nil || *other.Relevance > *base.Relevance) {
		r := *other.Relevance
		base.Relevance = &r
	}
	base.Social = a.Social || b.Social
	base.Sources = unionSources(a.Sources, b.Sources)
	return base
}

// unionSources appends the names in b missing from a, keeping a's order.
func unionSources(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// clone copies an item so cached snapshots are never mutated.
//
//nolint:gocritic // hugeParam: items are copied by value
func clone(item models.Item) models.Item {
	c := item
	c.Sources = append([]string(nil), item.Sources...)
	if item.Price != nil {
		p := *item.Price
		c.Price = &p
	}
	if item.Relevance != nil {
		r := *item.Relevance
		c.Relevance = &r
	}
	return c
}
