// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package trendcache

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
)

// ErrFetchPanic wraps a panic raised by a FetchFunc.
var ErrFetchPanic = errors.New("cache fetch panicked")

// Purpose selects the TTL applied to a cached result set.
type Purpose string

// Cache purposes.
const (
	PurposeSearch      Purpose = "search"
	PurposeTrending    Purpose = "trending"
	PurposeSeasonal    Purpose = "seasonal"
	PurposeInspiration Purpose = "inspiration"
	PurposeBrand       Purpose = "brand"
)

// Config controls TTLs and capacity.
type Config struct {
	// TTLs per purpose. Purposes missing from the map use the search TTL.
	TTLs map[Purpose]time.Duration

	// MaxEntries caps the number of cached result sets.
	MaxEntries int

	// StaleGrace is how long an expired entry is retained so it can be
	// served stale when a refill fails. Cleanup drops entries past it.
	StaleGrace time.Duration
}

// DefaultConfig returns the default TTL table: searches 30 minutes,
// trending and seasonal aggregates 60 minutes.
func DefaultConfig() Config {
	return Config{
		TTLs: map[Purpose]time.Duration{
			PurposeSearch:      30 * time.Minute,
			PurposeTrending:    60 * time.Minute,
			PurposeSeasonal:    60 * time.Minute,
			PurposeInspiration: 30 * time.Minute,
			PurposeBrand:       30 * time.Minute,
		},
		MaxEntries: 512,
		StaleGrace: 24 * time.Hour,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxEntries < 1 {
		return fmt.Errorf("max entries must be at least 1, got %d", c.MaxEntries)
	}
	if c.TTLs[PurposeSearch] <= 0 {
		return fmt.Errorf("search ttl must be positive")
	}
	for p, ttl := range c.TTLs {
		if ttl <= 0 {
			return fmt.Errorf("ttl for %s must be positive, got %s", p, ttl)
		}
	}
	if c.StaleGrace < 0 {
		return fmt.Errorf("stale grace must be non-negative, got %s", c.StaleGrace)
	}
	return nil
}

// FetchFunc refills a cache entry. It is expected to go through the
// source's rate limiter and client.
type FetchFunc func(ctx context.Context) ([]models.Item, error)

// Result is what a lookup returns. Items is a shared snapshot and must
// not be modified.
type Result struct {
	Items     []models.Item
	FetchedAt time.Time

	// Hit is true when no fetch was made for this call.
	Hit bool

	// Stale is true when the items come from an expired entry, either
	// because a refill failed or because one is in flight.
	Stale bool
}

// Key identifies a cache entry.
type Key struct {
	Source string
	Query  string
}

// Stats holds cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	StaleHits int64
	Evictions int64
	Size      int
}

// entry is a node in the fetch-order list.
type entry struct {
	key       Key
	items     []models.Item
	fetchedAt time.Time
	ttl       time.Duration
	prev      *entry
	next      *entry
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.fetchedAt) > e.ttl
}

// call is an in-flight refill shared by concurrent callers of one key.
type call struct {
	done      chan struct{}
	items     []models.Item
	fetchedAt time.Time
	err       error
}

// Cache is a bounded, time-based cache of per-source result sets.
//
// Entries are kept in a doubly-linked list ordered by fetch time, so the
// least-recently-fetched entry is evicted first; reads do not reorder.
// At most one refill runs per key at a time.
type Cache struct {
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	entries  map[Key]*entry
	inflight map[Key]*call

	// head.next is the most recently fetched, tail.prev the least
	head *entry
	tail *entry

	stats Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trend cache config: %w", err)
	}

	c := &Cache{
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With().Str("component", "trendcache").Logger(),
		entries:  make(map[Key]*entry, cfg.MaxEntries),
		inflight: make(map[Key]*call),
		head:     &entry{},
		tail:     &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the TTL applied for purpose.
func (c *Cache) TTL(purpose Purpose) time.Duration {
	if ttl, ok := c.cfg.TTLs[purpose]; ok {
		return ttl
	}
	return c.cfg.TTLs[PurposeSearch]
}

// GetOrFetch returns the cached result set for (sourceID, key), calling
// fetch on a miss or expiry.
//
// A failed refill with an existing entry serves that entry with Stale set
// and no error. While a refill is in flight, other callers get the expired
// entry immediately, or wait for the refill when there is none.
func (c *Cache) GetOrFetch(ctx context.Context, sourceID, key string, purpose Purpose, fetch FetchFunc) (Result, error) {
	k := Key{Source: sourceID, Query: key}
	now := c.now()

	c.mu.Lock()
	e := c.entries[k]
	if e != nil && !e.expired(now) {
		c.stats.Hits++
		res := Result{Items: e.items, FetchedAt: e.fetchedAt, Hit: true}
		c.mu.Unlock()
		metrics.RecordCacheLookup(string(purpose), "hit")
		return res, nil
	}

	if inflight, ok := c.inflight[k]; ok {
		if e != nil {
			c.stats.StaleHits++
			res := Result{Items: e.items, FetchedAt: e.fetchedAt, Hit: true, Stale: true}
			c.mu.Unlock()
			metrics.RecordCacheLookup(string(purpose), "stale")
			return res, nil
		}
		c.mu.Unlock()
		return c.wait(ctx, inflight)
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[k] = cl
	c.stats.Misses++
	ttl := c.TTL(purpose)
	c.mu.Unlock()
	metrics.RecordCacheLookup(string(purpose), "miss")

	items, err := c.callFetch(ctx, sourceID, key, fetch)
	fetchedAt := c.now()

	c.mu.Lock()
	delete(c.inflight, k)
	var res Result
	if err == nil {
		c.storeLocked(k, items, fetchedAt, ttl)
		res = Result{Items: items, FetchedAt: fetchedAt}
	} else if stale := c.entries[k]; stale != nil {
		c.stats.StaleHits++
		res = Result{Items: stale.items, FetchedAt: stale.fetchedAt, Hit: true, Stale: true}
	}
	c.mu.Unlock()

	cl.items, cl.fetchedAt, cl.err = items, fetchedAt, err
	close(cl.done)

	if err != nil {
		if res.Stale {
			c.logger.Warn().Err(err).Str("source", sourceID).Str("key", key).
				Time("fetched_at", res.FetchedAt).Msg("refill failed, serving stale entry")
			metrics.RecordCacheLookup(string(purpose), "stale")
			return res, nil
		}
		return Result{}, err
	}

	c.logger.Debug().Str("source", sourceID).Str("key", key).Int("items", len(items)).Dur("ttl", ttl).Msg("cache refilled")
	return res, nil
}

// callFetch runs fetch and turns a panic into ErrFetchPanic so the
// in-flight call is always completed and the key can be refilled.
func (c *Cache) callFetch(ctx context.Context, sourceID, key string, fetch FetchFunc) (items []models.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("source", sourceID).Str("key", key).
				Interface("panic", r).Bytes("stack", debug.Stack()).Msg("cache fetch panicked")
			items, err = nil, fmt.Errorf("%w: %v", ErrFetchPanic, r)
		}
	}()
	return fetch(ctx)
}

func (c *Cache) wait(ctx context.Context, cl *call) (Result, error) {
	select {
	case <-cl.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	if cl.err != nil {
		return Result{}, cl.err
	}
	return Result{Items: cl.items, FetchedAt: cl.fetchedAt, Hit: true}, nil
}

// storeLocked inserts or refreshes an entry at the head of the fetch order.
func (c *Cache) storeLocked(k Key, items []models.Item, fetchedAt time.Time, ttl time.Duration) {
	if e, ok := c.entries[k]; ok {
		e.items = items
		e.fetchedAt = fetchedAt
		e.ttl = ttl
		c.unlink(e)
		c.pushFront(e)
		return
	}

	e := &entry{key: k, items: items, fetchedAt: fetchedAt, ttl: ttl}
	c.pushFront(e)
	c.entries[k] = e

	for len(c.entries) > c.cfg.MaxEntries {
		oldest := c.tail.prev
		if oldest == c.head {
			break
		}
		c.unlink(oldest)
		delete(c.entries, oldest.key)
		c.stats.Evictions++
	}
}

// Invalidate drops every entry for sourceID. Returns the number removed.
func (c *Cache) Invalidate(sourceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if k.Source == sourceID {
			c.unlink(e)
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Cleanup removes entries expired for longer than the stale grace period
// and returns how many were removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.Sub(e.fetchedAt) > e.ttl+c.cfg.StaleGrace {
			c.unlink(e)
			delete(c.entries, e.key)
			removed++
		}
		e = prev
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) pushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}
