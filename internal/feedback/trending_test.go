// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/trendloom/internal/models"
)

func TestLedger_TrendingItems(t *testing.T) {
	l := newTestLedger(t, NewMemoryStore())
	ctx := context.Background()

	records := []models.FeedbackEvent{
		{SessionID: "s1", ItemID: "dress", FeedbackType: models.FeedbackLike, Title: "Red Dress", Brand: "Zara"},
		{SessionID: "s2", ItemID: "dress", FeedbackType: models.FeedbackSave},
		{SessionID: "s3", ItemID: "dress", FeedbackType: models.FeedbackView},
		{SessionID: "s1", ItemID: "boots", FeedbackType: models.FeedbackSave},
		{SessionID: "s2", ItemID: "hat", FeedbackType: models.FeedbackLike},
		{SessionID: "s2", ItemID: "scarf", FeedbackType: models.FeedbackDislike},
		{SessionID: "s4", ItemID: "old", FeedbackType: models.FeedbackLike, Timestamp: testNow.Add(-8 * 24 * time.Hour)},
	}
	for _, ev := range records {
		if _, err := l.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	items, err := l.TrendingItems(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("TrendingItems() error = %v", err)
	}

	want := []string{"dress", "boots", "hat"}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(items), len(want), items)
	}
	for i, id := range want {
		if items[i].ItemID != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ItemID, id)
		}
	}

	dress := items[0]
	if dress.Count != 2 || dress.Average != 1.25 || dress.Score != 2.5 {
		t.Errorf("dress aggregate = %+v", dress)
	}
	if dress.Title != "Red Dress" || dress.Brand != "Zara" {
		t.Errorf("metadata should carry over, got %+v", dress)
	}

	limited, _ := l.TrendingItems(ctx, time.Time{}, 1)
	if len(limited) != 1 {
		t.Errorf("limit not applied, got %d", len(limited))
	}
}

func TestLedger_TrendingItems_StaysFinite(t *testing.T) {
	store := NewMemoryStore()
	l := newTestLedger(t, store)
	ctx := context.Background()

	// Written straight to the store, bypassing Record's bounds.
	raw := []models.FeedbackEvent{
		{SessionID: "s1", ItemID: "dress", FeedbackType: models.FeedbackLike, Value: math.MaxFloat64},
		{SessionID: "s2", ItemID: "dress", FeedbackType: models.FeedbackSave, Value: math.MaxFloat64},
		{SessionID: "s3", ItemID: "dress", FeedbackType: models.FeedbackLike, Value: math.Inf(1)},
		{SessionID: "s1", ItemID: "boots", FeedbackType: models.FeedbackLike, Value: math.NaN()},
	}
	for i := range raw {
		raw[i].Timestamp = testNow.Add(-time.Hour)
		if err := store.Put(ctx, raw[i].Key(), &raw[i]); err != nil {
			t.Fatal(err)
		}
	}

	items, err := l.TrendingItems(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("TrendingItems() error = %v", err)
	}
	if len(items) != 1 || items[0].ItemID != "dress" {
		t.Fatalf("items = %+v", items)
	}
	dress := items[0]
	if dress.Count != 2 {
		t.Errorf("Count = %d, want 2 (non-finite values skipped)", dress.Count)
	}
	for name, v := range map[string]float64{"average": dress.Average, "score": dress.Score} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			t.Errorf("%s = %v, want finite", name, v)
		}
	}
}
