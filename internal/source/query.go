// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package source

import (
	"regexp"
	"strings"
	"unicode"
)

// QueryStyle controls how a query is phrased for a source.
type QueryStyle string

// Query styles.
const (
	// QueryText passes the query through unchanged.
	QueryText QueryStyle = "text"

	// QueryHashtag rewrites the query into a single hashtag, for sources
	// that only support tag search.
	QueryHashtag QueryStyle = "hashtag"
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// fallbackHashtag is used when a query has nothing tag-worthy in it.
const fallbackHashtag = "fashion"

// Hashtags returns the explicit #tags in text, without the leading '#'.
func Hashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

// HashtagQuery turns a free-text query into one hashtag.
// An explicit #tag wins; otherwise the words are folded together
// ("summer fashion" becomes "summerfashion"), falling back to "fashion".
func HashtagQuery(query string) string {
	if tags := Hashtags(query); len(tags) > 0 {
		return tags[0]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackHashtag
	}
	return b.String()
}

// Rewrite phrases query for the given style.
func (s QueryStyle) Rewrite(query string) string {
	if s == QueryHashtag {
		return HashtagQuery(query)
	}
	return strings.TrimSpace(query)
}
