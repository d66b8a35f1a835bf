// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package trendcache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, cfg Config, clock *testClock) *Cache {
	t.Helper()
	c, err := New(cfg, zerolog.Nop(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// countingFetch returns items tagged with the call number.
func countingFetch(calls *atomic.Int32) FetchFunc {
	return func(context.Context) ([]models.Item, error) {
		n := calls.Add(1)
		return []models.Item{{ID: "item-" + strconv.Itoa(int(n))}}, nil
	}
}

func TestGetOrFetch_TTLBoundary(t *testing.T) {
	clock := newTestClock()
	c := newTestCache(t, DefaultConfig(), clock)
	ctx := context.Background()
	var calls atomic.Int32
	fetch := countingFetch(&calls)

	ttl := c.TTL(PurposeSearch)
	if ttl != 30*time.Minute {
		t.Fatalf("search ttl = %s, want 30m", ttl)
	}

	res, err := c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, fetch)
	if err != nil || res.Hit {
		t.Fatalf("first lookup must miss: hit=%v err=%v", res.Hit, err)
	}

	clock.Advance(ttl - time.Second)
	res, err = c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if !res.Hit || calls.Load() != 1 {
		t.Errorf("expected hit before ttl, hit=%v calls=%d", res.Hit, calls.Load())
	}

	clock.Advance(time.Second)
	if res, _ = c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, fetch); !res.Hit {
		t.Error("entry must still be fresh exactly at fetchedAt + ttl")
	}

	clock.Advance(time.Second)
	res, err = c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if res.Hit || calls.Load() != 2 {
		t.Errorf("expected refetch after ttl, hit=%v calls=%d", res.Hit, calls.Load())
	}
	if res.Items[0].ID != "item-2" {
		t.Errorf("expected refreshed items, got %s", res.Items[0].ID)
	}
}

func TestGetOrFetch_PurposeTTLs(t *testing.T) {
	clock := newTestClock()
	c := newTestCache(t, DefaultConfig(), clock)
	ctx := context.Background()
	var calls atomic.Int32
	fetch := countingFetch(&calls)

	_, _ = c.GetOrFetch(ctx, "pinterest", "fashion", PurposeTrending, fetch)
	clock.Advance(45 * time.Minute)
	if res, _ := c.GetOrFetch(ctx, "pinterest", "fashion", PurposeTrending, fetch); !res.Hit {
		t.Error("trending entries live 60 minutes")
	}

	if got := c.TTL(Purpose("unknown")); got != 30*time.Minute {
		t.Errorf("unknown purpose must fall back to search ttl, got %s", got)
	}
}

func TestGetOrFetch_StaleOnError(t *testing.T) {
	clock := newTestClock()
	c := newTestCache(t, DefaultConfig(), clock)
	ctx := context.Background()
	var calls atomic.Int32

	if _, err := c.GetOrFetch(ctx, "pinterest", "boho", PurposeSearch, countingFetch(&calls)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	clock.Advance(time.Hour)
	boom := errors.New("upstream down")
	res, err := c.GetOrFetch(ctx, "pinterest", "boho", PurposeSearch, func(context.Context) ([]models.Item, error) {
		return nil, boom
	})
	if err != nil {
		t.Fatalf("stale entry must be served instead of the error, got %v", err)
	}
	if !res.Stale || len(res.Items) != 1 || res.Items[0].ID != "item-1" {
		t.Errorf("expected stale item-1, got %+v", res)
	}
	if c.Len() != 1 {
		t.Error("a failed refill must not evict the entry")
	}
	if s := c.Stats(); s.StaleHits != 1 {
		t.Errorf("expected 1 stale hit, got %d", s.StaleHits)
	}
}

func TestGetOrFetch_ErrorWithoutEntry(t *testing.T) {
	c := newTestCache(t, DefaultConfig(), newTestClock())
	boom := errors.New("upstream down")

	_, err := c.GetOrFetch(context.Background(), "pinterest", "boho", PurposeSearch, func(context.Context) ([]models.Item, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed fetch must not create an entry")
	}
}

func TestGetOrFetch_PanickingFetchCompletesCall(t *testing.T) {
	c := newTestCache(t, DefaultConfig(), newTestClock())
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, func(context.Context) ([]models.Item, error) {
			close(started)
			<-release
			panic("decoder blew up")
		})
		leaderErr <- err
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, func(context.Context) ([]models.Item, error) {
			return nil, errors.New("waiter must not fetch")
		})
		waiterErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for name, ch := range map[string]chan error{"leader": leaderErr, "waiter": waiterErr} {
		select {
		case err := <-ch:
			if !errors.Is(err, ErrFetchPanic) {
				t.Errorf("%s: expected ErrFetchPanic, got %v", name, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s still blocked after the fetch panicked", name)
		}
	}

	var calls atomic.Int32
	res, err := c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, countingFetch(&calls))
	if err != nil || calls.Load() != 1 || res.Hit {
		t.Errorf("key should refill after a panic: res=%+v err=%v calls=%d", res, err, calls.Load())
	}
}

func TestGetOrFetch_EvictsLeastRecentlyFetched(t *testing.T) {
	clock := newTestClock()
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c := newTestCache(t, cfg, clock)
	ctx := context.Background()
	var calls atomic.Int32
	fetch := countingFetch(&calls)

	_, _ = c.GetOrFetch(ctx, "shop", "a", PurposeSearch, fetch)
	clock.Advance(time.Second)
	_, _ = c.GetOrFetch(ctx, "shop", "b", PurposeSearch, fetch)

	// Reading "a" must not protect it: eviction follows fetch order.
	_, _ = c.GetOrFetch(ctx, "shop", "a", PurposeSearch, fetch)
	clock.Advance(time.Second)
	_, _ = c.GetOrFetch(ctx, "shop", "c", PurposeSearch, fetch)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	before := calls.Load()
	if res, _ := c.GetOrFetch(ctx, "shop", "b", PurposeSearch, fetch); !res.Hit {
		t.Error("expected b to survive")
	}
	if res, _ := c.GetOrFetch(ctx, "shop", "a", PurposeSearch, fetch); res.Hit {
		t.Error("expected a to be evicted as least recently fetched")
	}
	if calls.Load() != before+1 {
		t.Errorf("expected exactly one refetch, got %d", calls.Load()-before)
	}
	if s := c.Stats(); s.Evictions < 1 {
		t.Errorf("expected evictions to be counted, got %d", s.Evictions)
	}
}

func TestGetOrFetch_SingleFlight(t *testing.T) {
	c := newTestCache(t, DefaultConfig(), newTestClock())
	ctx := context.Background()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) ([]models.Item, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []models.Item{{ID: "x"}}, nil
	}

	var wg sync.WaitGroup
	results := make([]Result, 6)
	errs := make([]error, 6)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, fetch)
	}()
	<-started

	for i := 1; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrFetch(ctx, "shop", "dress", PurposeSearch, fetch)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected a single refill, got %d", calls.Load())
	}
	for i := range results {
		if errs[i] != nil {
			t.Errorf("caller %d: %v", i, errs[i])
			continue
		}
		if len(results[i].Items) != 1 || results[i].Items[0].ID != "x" {
			t.Errorf("caller %d got %+v", i, results[i])
		}
	}
}

func TestGetOrFetch_StaleWhileRevalidate(t *testing.T) {
	clock := newTestClock()
	c := newTestCache(t, DefaultConfig(), clock)
	ctx := context.Background()

	var calls atomic.Int32
	if _, err := c.GetOrFetch(ctx, "instagram", "fashion", PurposeTrending, countingFetch(&calls)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	clock.Advance(2 * time.Hour)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Result, 1)
	go func() {
		res, _ := c.GetOrFetch(ctx, "instagram", "fashion", PurposeTrending, func(context.Context) ([]models.Item, error) {
			close(started)
			<-release
			return []models.Item{{ID: "fresh"}}, nil
		})
		done <- res
	}()
	<-started

	res, err := c.GetOrFetch(ctx, "instagram", "fashion", PurposeTrending, func(context.Context) ([]models.Item, error) {
		t.Error("a second refill must not start while one is in flight")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if !res.Stale || res.Items[0].ID != "item-1" {
		t.Errorf("expected the stale entry during refill, got %+v", res)
	}

	close(release)
	if leader := <-done; leader.Stale || leader.Items[0].ID != "fresh" {
		t.Errorf("leader must get fresh items, got %+v", leader)
	}
}

func TestGetOrFetch_WaiterHonorsContext(t *testing.T) {
	c := newTestCache(t, DefaultConfig(), newTestClock())

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = c.GetOrFetch(context.Background(), "shop", "q", PurposeSearch, func(context.Context) ([]models.Item, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetOrFetch(ctx, "shop", "q", PurposeSearch, func(context.Context) ([]models.Item, error) {
		return nil, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCleanupAndInvalidate(t *testing.T) {
	clock := newTestClock()
	cfg := DefaultConfig()
	cfg.StaleGrace = time.Hour
	c := newTestCache(t, cfg, clock)
	ctx := context.Background()
	var calls atomic.Int32
	fetch := countingFetch(&calls)

	_, _ = c.GetOrFetch(ctx, "shop", "old", PurposeSearch, fetch)
	clock.Advance(2 * time.Hour)
	_, _ = c.GetOrFetch(ctx, "shop", "new", PurposeSearch, fetch)
	_, _ = c.GetOrFetch(ctx, "pinterest", "new", PurposeSearch, fetch)

	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("expected 1 entry past the grace period, got %d", removed)
	}
	if removed := c.Invalidate("shop"); removed != 1 {
		t.Errorf("expected 1 shop entry invalidated, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Len())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.MaxEntries = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected zero capacity to be rejected")
	}

	bad = DefaultConfig()
	bad.TTLs[PurposeSeasonal] = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected zero ttl to be rejected")
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeQuery("  Summer   DRESS "); got != "summer dress" {
		t.Errorf("NormalizeQuery() = %q", got)
	}
	a := NormalizeKeywords([]string{"Boho", " minimal ", "boho", ""})
	b := NormalizeKeywords([]string{"minimal", "BOHO"})
	if a != b || a != "boho,minimal" {
		t.Errorf("NormalizeKeywords() = %q and %q, want boho,minimal", a, b)
	}
}
