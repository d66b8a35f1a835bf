// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Cache      CacheConfig      `koanf:"cache"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Feedback   FeedbackConfig   `koanf:"feedback"`
	Preference PreferenceConfig `koanf:"preference"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Sources    []SourceConfig   `koanf:"sources"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins is the allow-list for cross-origin requests. "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// Per-client request cap applied by httprate. Zero requests disables it.
	RateLimitRequests int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CacheTTLConfig holds the cache TTL per request purpose.
type CacheTTLConfig struct {
	Search      time.Duration `koanf:"search"`
	Trending    time.Duration `koanf:"trending"`
	Seasonal    time.Duration `koanf:"seasonal"`
	Inspiration time.Duration `koanf:"inspiration"`
	Brand       time.Duration `koanf:"brand"`
}

// CacheConfig holds trend cache settings.
type CacheConfig struct {
	TTL             CacheTTLConfig `koanf:"ttl"`
	MaxEntries      int            `koanf:"max_entries"`
	StaleGrace      time.Duration  `koanf:"stale_grace"`
	CleanupInterval time.Duration  `koanf:"cleanup_interval"`
}

// RateLimitOverride replaces the default limits for one source.
// Zero fields inherit the default.
type RateLimitOverride struct {
	MinDelay          time.Duration `koanf:"min_delay"`
	Window            time.Duration `koanf:"window"`
	RequestsPerWindow int           `koanf:"requests_per_window"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
}

// RateLimitConfig holds the outbound per-source politeness limits.
type RateLimitConfig struct {
	MinDelay          time.Duration                `koanf:"min_delay"`
	Window            time.Duration                `koanf:"window"`
	RequestsPerWindow int                          `koanf:"requests_per_window"`
	MaxBackoff        time.Duration                `koanf:"max_backoff"`
	Retries           int                          `koanf:"retries"`
	Sources           map[string]RateLimitOverride `koanf:"sources"`
}

// BreakerConfig holds the per-source circuit breaker settings.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// FeedbackWeights holds the base weight per feedback type.
type FeedbackWeights struct {
	Like    float64 `koanf:"like"`
	Dislike float64 `koanf:"dislike"`
	Save    float64 `koanf:"save"`
	View    float64 `koanf:"view"`
}

// FeedbackConfig holds feedback ledger settings.
type FeedbackConfig struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`

	Weights FeedbackWeights `koanf:"weights"`

	// Retention is the horizon past which events stop influencing preferences.
	Retention time.Duration `koanf:"retention"`

	// ArchiveAfter prunes events older than this. Zero keeps everything.
	ArchiveAfter    time.Duration `koanf:"archive_after"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`

	TrendingWindow time.Duration `koanf:"trending_window"`
}

// PreferenceConfig holds preference model settings.
type PreferenceConfig struct {
	Floor    float64       `koanf:"floor"`
	MemoTTL  time.Duration `koanf:"memo_ttl"`
	MemoSize int           `koanf:"memo_size"`
}

// ScoringConfig holds scoring engine settings.
type ScoringConfig struct {
	Alpha            float64 `koanf:"alpha"`
	DefaultRelevance float64 `koanf:"default_relevance"`
}

// MaxResultsConfig holds the result cap per mode.
type MaxResultsConfig struct {
	Search          int `koanf:"search"`
	Trending        int `koanf:"trending"`
	Seasonal        int `koanf:"seasonal"`
	Inspiration     int `koanf:"inspiration"`
	Brand           int `koanf:"brand"`
	Recommendations int `koanf:"recommendations"`
}

// RecommendConfig holds recommendation service and fan-out settings.
type RecommendConfig struct {
	RequestTimeout time.Duration    `koanf:"request_timeout"`
	SourceTimeout  time.Duration    `koanf:"source_timeout"`
	MaxConcurrency int              `koanf:"max_concurrency"`
	MaxPerSource   int              `koanf:"max_per_source"`
	MaxResults     MaxResultsConfig `koanf:"max_results"`
	MaxQueryLength int              `koanf:"max_query_length"`
	RecordViews    bool             `koanf:"record_views"`
	ViewTopN       int              `koanf:"view_top_n"`
}

// SourceConfig describes one content source. Sources are queried in the
// order they are listed, which is also their merge priority.
type SourceConfig struct {
	Name       string            `koanf:"name"`
	Kind       string            `koanf:"kind"`
	Endpoint   string            `koanf:"endpoint"`
	QueryStyle string            `koanf:"query_style"`
	Timeout    time.Duration     `koanf:"timeout"`
	Headers    map[string]string `koanf:"headers"`
}
