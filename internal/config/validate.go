// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateFeedback(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.validateSources()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateCache() error {
	ttls := map[string]int64{
		"search":      int64(c.Cache.TTL.Search),
		"trending":    int64(c.Cache.TTL.Trending),
		"seasonal":    int64(c.Cache.TTL.Seasonal),
		"inspiration": int64(c.Cache.TTL.Inspiration),
		"brand":       int64(c.Cache.TTL.Brand),
	}
	for name, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("cache.ttl.%s must be positive", name)
		}
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.StaleGrace < 0 {
		return fmt.Errorf("cache.stale_grace must be non-negative")
	}
	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache.cleanup_interval must be positive")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	rl := c.RateLimit
	if rl.MinDelay < 0 {
		return fmt.Errorf("RATELIMIT_MIN_DELAY must be non-negative")
	}
	if rl.Window <= 0 || rl.RequestsPerWindow < 1 {
		return fmt.Errorf("ratelimit window and requests_per_window must be positive")
	}
	if rl.MaxBackoff < rl.MinDelay {
		return fmt.Errorf("RATELIMIT_MAX_BACKOFF %s must be >= min delay %s", rl.MaxBackoff, rl.MinDelay)
	}
	if rl.Retries < 0 {
		return fmt.Errorf("RATELIMIT_RETRIES must be non-negative, got %d", rl.Retries)
	}
	for name, o := range rl.Sources {
		if o.MinDelay < 0 || o.Window < 0 || o.RequestsPerWindow < 0 || o.MaxBackoff < 0 {
			return fmt.Errorf("ratelimit.sources.%s: limits must be non-negative", name)
		}
	}
	if c.Breaker.Enabled && (c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1) {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	return nil
}

func (c *Config) validateFeedback() error {
	fb := c.Feedback
	if !fb.InMemory && fb.Path == "" {
		return fmt.Errorf("FEEDBACK_DB_PATH is required unless FEEDBACK_IN_MEMORY=true")
	}
	if fb.Retention <= 0 {
		return fmt.Errorf("FEEDBACK_RETENTION must be positive")
	}
	if fb.ArchiveAfter < 0 {
		return fmt.Errorf("FEEDBACK_ARCHIVE_AFTER must be non-negative")
	}
	if fb.ArchiveAfter > 0 && fb.ArchiveAfter < fb.Retention {
		return fmt.Errorf("FEEDBACK_ARCHIVE_AFTER %s must not be shorter than retention %s", fb.ArchiveAfter, fb.Retention)
	}
	if fb.ArchiveAfter > 0 && fb.JanitorInterval <= 0 {
		return fmt.Errorf("feedback.janitor_interval must be positive when archiving is enabled")
	}
	if fb.TrendingWindow <= 0 {
		return fmt.Errorf("feedback.trending_window must be positive")
	}
	if c.Preference.Floor < 0 || c.Preference.Floor > 1 {
		return fmt.Errorf("preference.floor must be in [0, 1], got %v", c.Preference.Floor)
	}
	if c.Preference.MemoSize < 1 {
		return fmt.Errorf("preference.memo_size must be at least 1")
	}
	return nil
}

func (c *Config) validateScoring() error {
	if c.Scoring.Alpha < 0 || c.Scoring.Alpha > 1 {
		return fmt.Errorf("SCORING_ALPHA must be in [0, 1], got %v", c.Scoring.Alpha)
	}
	if c.Scoring.DefaultRelevance < 0 || c.Scoring.DefaultRelevance > 1 {
		return fmt.Errorf("SCORING_DEFAULT_RELEVANCE must be in [0, 1], got %v", c.Scoring.DefaultRelevance)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.RequestTimeout <= 0 || r.SourceTimeout <= 0 {
		return fmt.Errorf("recommend request and source timeouts must be positive")
	}
	if r.SourceTimeout > r.RequestTimeout {
		return fmt.Errorf("RECOMMEND_SOURCE_TIMEOUT %s must not exceed request timeout %s", r.SourceTimeout, r.RequestTimeout)
	}
	if r.MaxConcurrency < 1 || r.MaxPerSource < 1 {
		return fmt.Errorf("recommend max_concurrency and max_per_source must be at least 1")
	}
	if r.MaxQueryLength < 1 {
		return fmt.Errorf("recommend.max_query_length must be at least 1")
	}
	if r.ViewTopN < 0 {
		return fmt.Errorf("recommend.view_top_n must be non-negative")
	}
	caps := []int{r.MaxResults.Search, r.MaxResults.Trending, r.MaxResults.Seasonal,
		r.MaxResults.Inspiration, r.MaxResults.Brand, r.MaxResults.Recommendations}
	for _, n := range caps {
		if n < 1 {
			return fmt.Errorf("recommend.max_results values must be at least 1")
		}
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}

		switch s.Kind {
		case "ecommerce", "social":
		default:
			return fmt.Errorf("source %s: kind must be ecommerce or social, got %q", s.Name, s.Kind)
		}
		switch s.QueryStyle {
		case "", "text", "hashtag":
		default:
			return fmt.Errorf("source %s: query_style must be text or hashtag, got %q", s.Name, s.QueryStyle)
		}
		if err := validateHTTPURL(s.Endpoint); err != nil {
			return fmt.Errorf("source %s: %w", s.Name, err)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", raw)
	}
	return nil
}
