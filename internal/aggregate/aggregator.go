// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

// Package aggregate fans a query out to content sources through the trend
// cache and merges the per-source results into one deduplicated item list.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/source"
	"github.com/tomtom215/trendloom/internal/trendcache"
)

// ErrEmptyQuery is returned when a request has neither a query nor keywords.
var ErrEmptyQuery = errors.New("empty query")

// Config controls fan-out.
type Config struct {
	// SourceTimeout is the budget for one source; a source exceeding it
	// is abandoned and contributes nothing.
	SourceTimeout time.Duration

	// MaxConcurrency bounds simultaneous source fetches per request.
	MaxConcurrency int

	// MaxPerSource is the default number of results requested per source.
	MaxPerSource int
}

// DefaultConfig returns the default fan-out settings.
func DefaultConfig() Config {
	return Config{
		SourceTimeout:  5 * time.Second,
		MaxConcurrency: 8,
		MaxPerSource:   50,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got %s", c.SourceTimeout)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.MaxPerSource < 1 {
		return fmt.Errorf("max per source must be at least 1, got %d", c.MaxPerSource)
	}
	return nil
}

// Request describes one aggregation.
type Request struct {
	// Query is the text sent to each source.
	Query string

	// Keywords, when set, form the cache key instead of Query so that
	// keyword order does not matter.
	Keywords []string

	// Sources to query. Order is irrelevant; the registry priority is used.
	Sources []string

	// Purpose selects the cache TTL.
	Purpose trendcache.Purpose

	// MaxPerSource overrides Config.MaxPerSource when positive.
	MaxPerSource int
}

// Result is the merged output. Item order is unspecified beyond being
// stable for fixed inputs; ranking belongs to the scoring engine.
type Result struct {
	Items         []models.Item
	Degraded      bool
	Stale         bool
	FailedSources []string
	StaleSources  []string
}

// Aggregator merges results across sources.
type Aggregator struct {
	registry *source.Registry
	cache    *trendcache.Cache
	cfg      Config
	logger   zerolog.Logger
}

// New creates an Aggregator.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(registry *source.Registry, cache *trendcache.Cache, cfg Config, logger zerolog.Logger) (*Aggregator, error) {
	if registry == nil || cache == nil {
		return nil, fmt.Errorf("aggregator requires a registry and a cache")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aggregator config: %w", err)
	}
	return &Aggregator{
		registry: registry,
		cache:    cache,
		cfg:      cfg,
		logger:   logger.With().Str("component", "aggregate").Logger(),
	}, nil
}

// sourceResult is the outcome for one source.
type sourceResult struct {
	name  string
	items []models.Item
	stale bool
	err   error
}

// Aggregate queries every requested source in parallel and merges the
// results by item ID. Per-source failures mark the result degraded and
// never fail the call.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*Result, error) {
	cacheKey := cacheKeyFor(req)
	if cacheKey == "" {
		return nil, ErrEmptyQuery
	}

	names := a.prioritize(req.Sources)
	results := make([]sourceResult, len(names))
	sem := make(chan struct{}, a.cfg.MaxConcurrency)

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = sourceResult{name: name, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			results[idx] = a.fetchSource(ctx, name, cacheKey, req)
		}(i, name)
	}
	wg.Wait()

	out := &Result{}
	lists := make([][]models.Item, 0, len(results))
	for _, r := range results {
		switch {
		case r.err != nil:
			out.Degraded = true
			out.FailedSources = append(out.FailedSources, r.name)
			a.logger.Warn().Err(r.err).Str("source", r.name).Str("purpose", string(req.Purpose)).Msg("source failed, omitting its contribution")
			metrics.RecordAggregateSource(r.name, outcomeFor(r.err))
			continue
		case r.stale:
			out.Stale = true
			out.StaleSources = append(out.StaleSources, r.name)
			metrics.RecordAggregateSource(r.name, "stale")
		default:
			metrics.RecordAggregateSource(r.name, "ok")
		}
		lists = append(lists, r.items)
	}

	out.Items = Merge(lists...)

	a.logger.Debug().
		Int("sources", len(names)).
		Int("failed", len(out.FailedSources)).
		Int("items", len(out.Items)).
		Bool("stale", out.Stale).
		Msg("aggregation complete")

	return out, nil
}

// fetchSource runs one source lookup under its own budget. The lookup is
// abandoned, not awaited, once the budget is spent.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (a *Aggregator) fetchSource(ctx context.Context, name, cacheKey string, req Request) sourceResult {
	client, ok := a.registry.Get(name)
	if !ok {
		return sourceResult{name: name, err: fmt.Errorf("unknown source %q: %w", name, source.ErrSourceUnavailable)}
	}

	limit := req.MaxPerSource
	if limit <= 0 {
		limit = a.cfg.MaxPerSource
	}

	sctx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
	defer cancel()

	fetch := func(fctx context.Context) ([]models.Item, error) {
		raw, err := client.Fetch(fctx, req.Query, limit)
		if err != nil {
			return nil, err
		}
		return convert(raw, name, client.Kind() == source.KindSocial), nil
	}

	done := make(chan sourceResult, 1)
	go func() {
		res, err := a.cache.GetOrFetch(sctx, name, cacheKey, req.Purpose, fetch)
		done <- sourceResult{name: name, items: res.Items, stale: res.Stale, err: err}
	}()

	select {
	case r := <-done:
		return r
	case <-sctx.Done():
		return sourceResult{name: name, err: fmt.Errorf("%s: budget exceeded: %w", name, sctx.Err())}
	}
}

// prioritize de-duplicates names and orders them by registry priority.
func (a *Aggregator) prioritize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return a.registry.Priority(out[i]) < a.registry.Priority(out[j])
	})
	return out
}

// cacheKeyFor prefixes the normalized query with its purpose so entries
// with different TTLs never alias.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func cacheKeyFor(req Request) string {
	var key string
	if len(req.Keywords) > 0 {
		key = trendcache.NormalizeKeywords(req.Keywords)
	} else {
		key = trendcache.NormalizeQuery(req.Query)
	}
	if key == "" {
		return ""
	}
	return string(req.Purpose) + ":" + key
}

// convert turns raw records into items, deriving relevance from rank as
// (n - rank + 1) / n. Records without a URL cannot be identified and are
// dropped.
func convert(raw []models.RawItem, sourceName string, social bool) []models.Item {
	items := make([]models.Item, 0, len(raw))
	n := len(raw)
	for i := range raw {
		if raw[i].URL == "" {
			continue
		}
		item := models.NewItem(raw[i], sourceName, social)
		if rank := raw[i].SourceRank; rank > 0 {
			if rank > n {
				rank = n
			}
			rel := float64(n-rank+1) / float64(n)
			item.Relevance = &rel
		}
		items = append(items, item)
	}
	return items
}

func outcomeFor(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "failed"
}
