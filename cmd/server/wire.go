// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package main

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/aggregate"
	"github.com/tomtom215/trendloom/internal/api"
	"github.com/tomtom215/trendloom/internal/config"
	"github.com/tomtom215/trendloom/internal/feedback"
	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/preference"
	"github.com/tomtom215/trendloom/internal/ratelimit"
	"github.com/tomtom215/trendloom/internal/recommend"
	"github.com/tomtom215/trendloom/internal/scoring"
	"github.com/tomtom215/trendloom/internal/source"
	"github.com/tomtom215/trendloom/internal/trendcache"
)

// app holds the wired components that outlive construction.
type app struct {
	registry *source.Registry
	cache    *trendcache.Cache
	ledger   *feedback.Ledger
	prefs    *preference.Model
	service  *recommend.Service
	server   *http.Server
}

// feedbackWeights maps configured weights onto feedback types.
func feedbackWeights(w config.FeedbackWeights) map[models.FeedbackType]float64 {
	return map[models.FeedbackType]float64{
		models.FeedbackLike:    w.Like,
		models.FeedbackDislike: w.Dislike,
		models.FeedbackSave:    w.Save,
		models.FeedbackView:    w.View,
	}
}

// rateLimits returns the default limits and per-source overrides, with zero
// override fields filled from the defaults.
func rateLimits(cfg *config.RateLimitConfig) (ratelimit.Config, map[string]ratelimit.Config) {
	defaults := ratelimit.Config{
		MinDelay:          cfg.MinDelay,
		Window:            cfg.Window,
		RequestsPerWindow: cfg.RequestsPerWindow,
		MaxBackoff:        cfg.MaxBackoff,
	}

	overrides := make(map[string]ratelimit.Config, len(cfg.Sources))
	for name, o := range cfg.Sources {
		merged := defaults
		if o.MinDelay > 0 {
			merged.MinDelay = o.MinDelay
		}
		if o.Window > 0 {
			merged.Window = o.Window
		}
		if o.RequestsPerWindow > 0 {
			merged.RequestsPerWindow = o.RequestsPerWindow
		}
		if o.MaxBackoff > 0 {
			merged.MaxBackoff = o.MaxBackoff
		}
		overrides[name] = merged
	}
	return defaults, overrides
}

// buildRegistry creates one client per configured source, in priority order.
// Each client is rate limited, and the breaker sits outermost so an open
// circuit is rejected without waiting on the limiter.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func buildRegistry(cfg *config.Config, logger zerolog.Logger) (*source.Registry, error) {
	defaults, overrides := rateLimits(&cfg.RateLimit)
	limiter := ratelimit.New(defaults, overrides, logger)

	breaker := source.BreakerConfig{
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
	}

	clients := make([]source.Client, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		kind, err := source.ParseKind(sc.Kind)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		httpClient, err := source.NewHTTPClient(source.HTTPConfig{
			Name:       sc.Name,
			Kind:       kind,
			Endpoint:   sc.Endpoint,
			QueryStyle: source.QueryStyle(sc.QueryStyle),
			Timeout:    sc.Timeout,
			Headers:    sc.Headers,
		})
		if err != nil {
			return nil, err
		}

		var c source.Client = source.WithRateLimit(httpClient, limiter, cfg.RateLimit.Retries)
		if cfg.Breaker.Enabled {
			c = source.WithCircuitBreaker(c, breaker, logger)
		}
		clients = append(clients, c)
	}
	return source.NewRegistry(clients...)
}

func cacheConfig(cfg *config.CacheConfig) trendcache.Config {
	return trendcache.Config{
		TTLs: map[trendcache.Purpose]time.Duration{
			trendcache.PurposeSearch:      cfg.TTL.Search,
			trendcache.PurposeTrending:    cfg.TTL.Trending,
			trendcache.PurposeSeasonal:    cfg.TTL.Seasonal,
			trendcache.PurposeInspiration: cfg.TTL.Inspiration,
			trendcache.PurposeBrand:       cfg.TTL.Brand,
		},
		MaxEntries: cfg.MaxEntries,
		StaleGrace: cfg.StaleGrace,
	}
}

func recommendConfig(cfg *config.Config) recommend.Config {
	rc := recommend.DefaultConfig()
	rc.RequestTimeout = cfg.Recommend.RequestTimeout
	rc.MaxResults = map[string]int{
		recommend.ModeSearch:          cfg.Recommend.MaxResults.Search,
		recommend.ModeTrending:        cfg.Recommend.MaxResults.Trending,
		recommend.ModeSeasonal:        cfg.Recommend.MaxResults.Seasonal,
		recommend.ModeInspiration:     cfg.Recommend.MaxResults.Inspiration,
		recommend.ModeBrand:           cfg.Recommend.MaxResults.Brand,
		recommend.ModeRecommendations: cfg.Recommend.MaxResults.Recommendations,
	}
	rc.MaxQueryLength = cfg.Recommend.MaxQueryLength
	rc.RecordViews = cfg.Recommend.RecordViews
	rc.ViewTopN = cfg.Recommend.ViewTopN
	rc.TrendingWindow = cfg.Feedback.TrendingWindow
	return rc
}

// openStore opens the Badger feedback store, in memory when configured.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func openStore(cfg *config.FeedbackConfig, logger zerolog.Logger) (feedback.Store, error) {
	return feedback.OpenBadger(feedback.BadgerConfig{
		Path:       cfg.Path,
		InMemory:   cfg.InMemory,
		SyncWrites: cfg.SyncWrites,
	}, logger)
}

// buildApp wires every component from cfg. The caller owns store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func buildApp(cfg *config.Config, store feedback.Store, logger zerolog.Logger) (*app, error) {
	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	cache, err := trendcache.New(cacheConfig(&cfg.Cache), logger)
	if err != nil {
		return nil, fmt.Errorf("build trend cache: %w", err)
	}

	agg, err := aggregate.New(registry, cache, aggregate.Config{
		SourceTimeout:  cfg.Recommend.SourceTimeout,
		MaxConcurrency: cfg.Recommend.MaxConcurrency,
		MaxPerSource:   cfg.Recommend.MaxPerSource,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build aggregator: %w", err)
	}

	weights := feedbackWeights(cfg.Feedback.Weights)
	ledger, err := feedback.New(store, feedback.Config{Weights: weights}, logger)
	if err != nil {
		return nil, fmt.Errorf("build feedback ledger: %w", err)
	}

	prefs, err := preference.New(preference.Config{
		Weights:  weights,
		Horizon:  cfg.Feedback.Retention,
		Floor:    cfg.Preference.Floor,
		MemoTTL:  cfg.Preference.MemoTTL,
		MemoSize: cfg.Preference.MemoSize,
	}, ledger, logger)
	if err != nil {
		return nil, fmt.Errorf("build preference model: %w", err)
	}

	scorer, err := scoring.New(scoring.Config{
		Alpha:            cfg.Scoring.Alpha,
		DefaultRelevance: cfg.Scoring.DefaultRelevance,
	})
	if err != nil {
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}

	svc, err := recommend.New(recommendConfig(cfg), recommend.Deps{
		Sources:     registry,
		Aggregator:  agg,
		Preferences: prefs,
		Ledger:      ledger,
		Scorer:      scorer,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build recommendation service: %w", err)
	}

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	router := api.NewRouter(api.NewHandler(svc, registry), api.NewChiMiddleware(mwCfg))

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &app{
		registry: registry,
		cache:    cache,
		ledger:   ledger,
		prefs:    prefs,
		service:  svc,
		server:   server,
	}, nil
}
