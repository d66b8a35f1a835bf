// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package aggregate

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/source"
	"github.com/tomtom215/trendloom/internal/trendcache"
)

// stubClient serves fixed items or a fixed error.
type stubClient struct {
	name  string
	kind  source.Kind
	items []models.RawItem
	err   error
	block bool
	calls atomic.Int32
}

func (s *stubClient) Name() string      { return s.name }
func (s *stubClient) Kind() source.Kind { return s.kind }

func (s *stubClient) Fetch(ctx context.Context, _ string, maxResults int) ([]models.RawItem, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	items := s.items
	if maxResults > 0 && len(items) > maxResults {
		items = items[:maxResults]
	}
	return items, nil
}

func price(v float64) *float64 { return &v }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newAggregator(t *testing.T, cfg Config, clk *clock, clients ...source.Client) *Aggregator {
	t.Helper()
	reg, err := source.NewRegistry(clients...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	opts := []trendcache.Option{}
	if clk != nil {
		opts = append(opts, trendcache.WithClock(clk.Now))
	}
	cache, err := trendcache.New(trendcache.DefaultConfig(), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("trendcache.New: %v", err)
	}
	agg, err := New(reg, cache, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return agg
}

func TestAggregate_DedupAcrossSources(t *testing.T) {
	shop := &stubClient{name: "shop", kind: source.KindEcommerce, items: []models.RawItem{
		{URL: "https://www.zara.com/dress-1?utm_source=shop", Title: "Linen Dress", SourceRank: 1},
		{URL: "https://shop.example.com/other", Title: "Other", SourceRank: 2},
	}}
	pin := &stubClient{name: "pinterest", kind: source.KindSocial, items: []models.RawItem{
		{URL: "http://zara.com/dress-1/", Title: "Zara linen dress", Brand: "Zara", Category: "dress", Price: price(59), SourceRank: 1},
	}}

	agg := newAggregator(t, DefaultConfig(), nil, shop, pin)
	res, err := agg.Aggregate(context.Background(), Request{
		Query:   "linen dress",
		Sources: []string{"pinterest", "shop"},
		Purpose: trendcache.PurposeSearch,
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if res.Degraded {
		t.Error("no source failed, result must not be degraded")
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 unique items, got %d: %+v", len(res.Items), res.Items)
	}

	merged := res.Items[0]
	if merged.ID != models.CanonicalID("https://zara.com/dress-1") {
		t.Fatalf("expected the zara dress first (highest priority source), got %s", merged.URL)
	}
	if merged.Brand != "Zara" || merged.Category != "dress" || merged.Price == nil {
		t.Errorf("richest fields must win, got %+v", merged)
	}
	if merged.SourceSite != "pinterest" {
		t.Errorf("richer record's site must be kept, got %s", merged.SourceSite)
	}
	if !reflect.DeepEqual(merged.Sources, []string{"shop", "pinterest"}) {
		t.Errorf("sources must list every contributor in priority order, got %v", merged.Sources)
	}
	if !merged.Social {
		t.Error("a social contributor must set the social badge")
	}
	if merged.Relevance == nil || *merged.Relevance != 1 {
		t.Errorf("expected max relevance 1, got %v", merged.Relevance)
	}
}

func TestAggregate_TieGoesToPriority(t *testing.T) {
	a := &stubClient{name: "a", kind: source.KindSocial, items: []models.RawItem{{URL: "https://x/1", Title: "From A", Brand: "A"}}}
	b := &stubClient{name: "b", kind: source.KindSocial, items: []models.RawItem{{URL: "https://x/1", Title: "From B", Brand: "B"}}}

	agg := newAggregator(t, DefaultConfig(), nil, a, b)
	res, err := agg.Aggregate(context.Background(), Request{Query: "q", Sources: []string{"b", "a"}, Purpose: trendcache.PurposeTrending})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	if res.Items[0].Title != "From A" || res.Items[0].Brand != "A" {
		t.Errorf("tie must be broken by source priority, got %+v", res.Items[0])
	}
}

func TestAggregate_SourceUnavailableDegrades(t *testing.T) {
	pin := &stubClient{name: "pinterest", kind: source.KindSocial, err: source.Unavailable("pinterest", errors.New("502"))}
	ig := &stubClient{name: "instagram", kind: source.KindSocial, items: []models.RawItem{
		{URL: "https://instagram.com/p/1", Title: "Look 1"},
		{URL: "https://instagram.com/p/2", Title: "Look 2"},
	}}

	agg := newAggregator(t, DefaultConfig(), nil, pin, ig)
	res, err := agg.Aggregate(context.Background(), Request{Query: "fashion", Sources: []string{"pinterest", "instagram"}, Purpose: trendcache.PurposeTrending})
	if err != nil {
		t.Fatalf("per-source failure must not fail the request: %v", err)
	}
	if !res.Degraded {
		t.Error("expected degradation flag")
	}
	if !reflect.DeepEqual(res.FailedSources, []string{"pinterest"}) {
		t.Errorf("FailedSources = %v", res.FailedSources)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected instagram items only, got %d", len(res.Items))
	}
	for _, item := range res.Items {
		if item.SourceSite != "instagram" {
			t.Errorf("unexpected source %s", item.SourceSite)
		}
	}
}

func TestAggregate_SlowSourceAbandoned(t *testing.T) {
	slow := &stubClient{name: "slow", kind: source.KindSocial, block: true}
	fast := &stubClient{name: "fast", kind: source.KindSocial, items: []models.RawItem{{URL: "https://fast/1", Title: "F"}}}

	cfg := DefaultConfig()
	cfg.SourceTimeout = 50 * time.Millisecond
	agg := newAggregator(t, cfg, nil, slow, fast)

	start := time.Now()
	res, err := agg.Aggregate(context.Background(), Request{Query: "q", Sources: []string{"slow", "fast"}, Purpose: trendcache.PurposeSearch})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("slow source must be abandoned at its budget, took %s", elapsed)
	}
	if !res.Degraded || len(res.Items) != 1 {
		t.Errorf("expected degraded result with fast items, got %+v", res)
	}
}

func TestAggregate_StaleFlag(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ig := &stubClient{name: "instagram", kind: source.KindSocial, items: []models.RawItem{{URL: "https://ig/1", Title: "Look"}}}
	agg := newAggregator(t, DefaultConfig(), clk, ig)
	req := Request{Query: "fashion", Sources: []string{"instagram"}, Purpose: trendcache.PurposeTrending}

	if _, err := agg.Aggregate(context.Background(), req); err != nil {
		t.Fatalf("seed: %v", err)
	}

	clk.Advance(2 * time.Hour)
	ig.err = source.Unavailable("instagram", errors.New("down"))

	res, err := agg.Aggregate(context.Background(), req)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !res.Stale || res.Degraded {
		t.Errorf("expected stale but not degraded, got stale=%v degraded=%v", res.Stale, res.Degraded)
	}
	if !reflect.DeepEqual(res.StaleSources, []string{"instagram"}) || len(res.Items) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAggregate_CachesPerSource(t *testing.T) {
	ig := &stubClient{name: "instagram", kind: source.KindSocial, items: []models.RawItem{{URL: "https://ig/1"}}}
	agg := newAggregator(t, DefaultConfig(), nil, ig)

	for _, q := range []string{"Boho  Chic", "boho chic "} {
		if _, err := agg.Aggregate(context.Background(), Request{Query: q, Sources: []string{"instagram"}, Purpose: trendcache.PurposeSearch}); err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
	}
	if got := ig.calls.Load(); got != 1 {
		t.Errorf("equivalent queries must share a cache entry, got %d fetches", got)
	}

	for _, kws := range [][]string{{"boho", "minimal"}, {"Minimal", "boho"}} {
		if _, err := agg.Aggregate(context.Background(), Request{Query: "fashion inspiration", Keywords: kws, Sources: []string{"instagram"}, Purpose: trendcache.PurposeInspiration}); err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
	}
	if got := ig.calls.Load(); got != 2 {
		t.Errorf("keyword order must not matter, got %d fetches", got)
	}
}

func TestAggregate_UnknownSourceAndEmptyQuery(t *testing.T) {
	ig := &stubClient{name: "instagram", kind: source.KindSocial}
	agg := newAggregator(t, DefaultConfig(), nil, ig)

	res, err := agg.Aggregate(context.Background(), Request{Query: "q", Sources: []string{"nope"}, Purpose: trendcache.PurposeSearch})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !res.Degraded || len(res.Items) != 0 || res.Items == nil {
		t.Errorf("unknown source must degrade to an empty, non-nil list, got %+v", res)
	}

	if _, err := agg.Aggregate(context.Background(), Request{Query: "   ", Sources: []string{"instagram"}}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestConvert_Relevance(t *testing.T) {
	raw := []models.RawItem{
		{URL: "https://a", SourceRank: 1},
		{URL: "https://b", SourceRank: 4},
		{URL: "", SourceRank: 2},
		{URL: "https://c"},
	}
	items := convert(raw, "shop", false)
	if len(items) != 3 {
		t.Fatalf("records without a URL must be dropped, got %d", len(items))
	}
	if *items[0].Relevance != 1 {
		t.Errorf("rank 1 relevance = %v, want 1", *items[0].Relevance)
	}
	if *items[1].Relevance != 0.25 {
		t.Errorf("rank 4 of 4 relevance = %v, want 0.25", *items[1].Relevance)
	}
	if items[2].Relevance != nil {
		t.Error("unranked records must have nil relevance")
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := []models.Item{{ID: "1", Title: "A", Sources: []string{"a"}}}
	b := []models.Item{{ID: "1", Brand: "B", Category: "c", Sources: []string{"b"}}}

	out := Merge(a, b)
	if len(out) != 1 || out[0].Brand != "B" || out[0].Title != "A" {
		t.Fatalf("unexpected merge %+v", out)
	}
	if a[0].Brand != "" || len(a[0].Sources) != 1 || len(b[0].Sources) != 1 {
		t.Error("inputs must not be modified")
	}
}
