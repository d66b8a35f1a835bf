// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package trendcache

import (
	"sort"
	"strings"
)

// NormalizeQuery lower-cases, trims and collapses internal whitespace so
// that "  Summer  Dress" and "summer dress" share one entry.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// NormalizeKeywords normalizes each keyword, drops empties and duplicates
// and sorts the rest, so keyword order does not matter.
func NormalizeKeywords(keywords []string) string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		n := NormalizeQuery(kw)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
