// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package recommend

import (
	"fmt"
	"time"
)

// Config configures the service.
type Config struct {
	// RequestTimeout bounds the whole aggregate and score pipeline.
	RequestTimeout time.Duration

	// MaxResults is the result cap per mode name. Missing modes use DefaultMaxResults.
	MaxResults map[string]int

	// MaxQueryLength caps queries and brand names, in characters.
	MaxQueryLength int

	// RecordViews records the top ViewTopN results of search, seasonal and
	// inspiration requests as view feedback when a session is present.
	RecordViews bool
	ViewTopN    int

	// SummaryTopN is the number of buckets and trending items per category
	// in a preferences summary.
	SummaryTopN int

	// TrendingWindow is how far back summaries look for trending items.
	// Zero uses the ledger default.
	TrendingWindow time.Duration
}

// DefaultMaxResults applies to modes missing from Config.MaxResults.
const DefaultMaxResults = 20

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 8 * time.Second,
		MaxResults: map[string]int{
			ModeSearch:          20,
			ModeTrending:        30,
			ModeSeasonal:        20,
			ModeInspiration:     15,
			ModeBrand:           15,
			ModeRecommendations: 20,
		},
		MaxQueryLength: 256,
		RecordViews:    true,
		ViewTopN:       10,
		SummaryTopN:    5,
		TrendingWindow: 7 * 24 * time.Hour,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	for mode, n := range c.MaxResults {
		if n < 1 {
			return fmt.Errorf("max results for %s must be at least 1, got %d", mode, n)
		}
	}
	if c.MaxQueryLength < 1 {
		return fmt.Errorf("max query length must be at least 1, got %d", c.MaxQueryLength)
	}
	if c.RecordViews && c.ViewTopN < 1 {
		return fmt.Errorf("view top n must be at least 1 when recording views, got %d", c.ViewTopN)
	}
	if c.SummaryTopN < 1 {
		return fmt.Errorf("summary top n must be at least 1, got %d", c.SummaryTopN)
	}
	return nil
}

func (c *Config) maxResults(mode string) int {
	if n, ok := c.MaxResults[mode]; ok {
		return n
	}
	return DefaultMaxResults
}
