// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trendloom/config.yaml",
	"/etc/trendloom/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the defaults applied before the file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			TTL: CacheTTLConfig{
				Search:      30 * time.Minute,
				Trending:    60 * time.Minute,
				Seasonal:    60 * time.Minute,
				Inspiration: 30 * time.Minute,
				Brand:       30 * time.Minute,
			},
			MaxEntries:      512,
			StaleGrace:      24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			MinDelay:          2 * time.Second,
			Window:            time.Minute,
			RequestsPerWindow: 30,
			MaxBackoff:        time.Minute,
			Retries:           3,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      2 * time.Minute,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Feedback: FeedbackConfig{
			Path:       "/data/feedback",
			InMemory:   false,
			SyncWrites: false,
			Weights: FeedbackWeights{
				Like:    1.0,
				Dislike: -1.0,
				Save:    1.5,
				View:    0.1,
			},
			Retention:       30 * 24 * time.Hour,
			ArchiveAfter:    0,
			JanitorInterval: time.Hour,
			TrendingWindow:  7 * 24 * time.Hour,
		},
		Preference: PreferenceConfig{
			Floor:    0.1,
			MemoTTL:  time.Minute,
			MemoSize: 1024,
		},
		Scoring: ScoringConfig{
			Alpha:            0.5,
			DefaultRelevance: 0.5,
		},
		Recommend: RecommendConfig{
			RequestTimeout: 8 * time.Second,
			SourceTimeout:  5 * time.Second,
			MaxConcurrency: 8,
			MaxPerSource:   50,
			MaxResults: MaxResultsConfig{
				Search:          20,
				Trending:        30,
				Seasonal:        20,
				Inspiration:     15,
				Brand:           15,
				Recommendations: 20,
			},
			MaxQueryLength: 256,
			RecordViews:    true,
			ViewTopN:       10,
		},
	}
}

// Load builds the configuration from three layers, later layers winning:
//
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_PATH, else the first of DefaultConfigPaths)
//  3. environment variables listed in envMappings
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are keys whose env values are comma-separated lists.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated string values at the keys in
// sliceConfigPaths. Values that are already lists (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config keys.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Trend cache
	"cache_ttl_search":       "cache.ttl.search",
	"cache_ttl_trending":     "cache.ttl.trending",
	"cache_ttl_seasonal":     "cache.ttl.seasonal",
	"cache_ttl_inspiration":  "cache.ttl.inspiration",
	"cache_ttl_brand":        "cache.ttl.brand",
	"cache_max_entries":      "cache.max_entries",
	"cache_stale_grace":      "cache.stale_grace",
	"cache_cleanup_interval": "cache.cleanup_interval",

	// Outbound rate limiting
	"ratelimit_min_delay":           "ratelimit.min_delay",
	"ratelimit_window":              "ratelimit.window",
	"ratelimit_requests_per_window": "ratelimit.requests_per_window",
	"ratelimit_max_backoff":         "ratelimit.max_backoff",
	"ratelimit_retries":             "ratelimit.retries",

	// Circuit breaker
	"circuit_breaker_enabled":       "breaker.enabled",
	"circuit_breaker_timeout":       "breaker.timeout",
	"circuit_breaker_failure_ratio": "breaker.failure_ratio",

	// Feedback ledger
	"feedback_db_path":          "feedback.path",
	"feedback_in_memory":        "feedback.in_memory",
	"feedback_sync_writes":      "feedback.sync_writes",
	"feedback_weight_like":      "feedback.weights.like",
	"feedback_weight_dislike":   "feedback.weights.dislike",
	"feedback_weight_save":      "feedback.weights.save",
	"feedback_weight_view":      "feedback.weights.view",
	"feedback_retention":        "feedback.retention",
	"feedback_archive_after":    "feedback.archive_after",
	"feedback_janitor_interval": "feedback.janitor_interval",
	"feedback_trending_window":  "feedback.trending_window",

	// Preference model
	"preference_floor":    "preference.floor",
	"preference_memo_ttl": "preference.memo_ttl",

	// Scoring
	"scoring_alpha":             "scoring.alpha",
	"scoring_default_relevance": "scoring.default_relevance",

	// Recommendation service
	"recommend_request_timeout": "recommend.request_timeout",
	"recommend_source_timeout":  "recommend.source_timeout",
	"recommend_max_concurrency": "recommend.max_concurrency",
	"recommend_max_per_source":  "recommend.max_per_source",
	"recommend_record_views":    "recommend.record_views",
	"recommend_view_top_n":      "recommend.view_top_n",
}

// envTransformFunc maps an environment variable name to its config key.
// Unknown variables map to "" and are ignored by the provider.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
