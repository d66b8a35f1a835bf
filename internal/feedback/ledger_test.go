// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// storeFactories runs every ledger test against both backends.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"badger": func() Store {
			s, err := OpenBadger(BadgerConfig{InMemory: true}, zerolog.Nop())
			if err != nil {
				t.Fatalf("OpenBadger() error = %v", err)
			}
			return s
		},
	}
}

func newTestLedger(t *testing.T, store Store) *Ledger {
	t.Helper()
	l, err := New(store, DefaultConfig(), zerolog.Nop(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func event(session, item string, t models.FeedbackType, at time.Time) models.FeedbackEvent {
	return models.FeedbackEvent{SessionID: session, ItemID: item, FeedbackType: t, Timestamp: at}
}

func TestLedger_UpsertIsIdempotent(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			l := newTestLedger(t, factory())
			ctx := context.Background()

			first := event("s1", "item-1", models.FeedbackLike, testNow.Add(-time.Hour))
			first.Brand = "Acme"
			if _, err := l.Record(ctx, first); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			second := event("s1", "item-1", models.FeedbackLike, testNow)
			second.Brand = "Zara"
			key, err := l.Record(ctx, second)
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			if key != "feedback:s1:item-1:like" {
				t.Errorf("key = %q", key)
			}

			events, err := l.Query(ctx, "s1", time.Time{})
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("expected one event after upsert, got %d", len(events))
			}
			if events[0].Brand != "Zara" || !events[0].Timestamp.Equal(testNow) {
				t.Errorf("upsert should keep the latest event, got %+v", events[0])
			}
		})
	}
}

func TestLedger_DistinctTypesCoexist(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			l := newTestLedger(t, factory())
			ctx := context.Background()

			for _, ft := range []models.FeedbackType{models.FeedbackLike, models.FeedbackSave} {
				if _, err := l.Record(ctx, event("s1", "item-1", ft, testNow)); err != nil {
					t.Fatalf("Record(%s) error = %v", ft, err)
				}
			}

			counts, err := l.Count(ctx, "s1")
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if counts.Total != 2 || counts.ByType[models.FeedbackLike] != 1 || counts.ByType[models.FeedbackSave] != 1 {
				t.Errorf("unexpected counts %+v", counts)
			}
			if counts.ByType[models.FeedbackView] != 0 {
				t.Errorf("every type should be reported, got %+v", counts.ByType)
			}
		})
	}
}

func TestLedger_QueryOrderingAndSince(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			l := newTestLedger(t, factory())
			ctx := context.Background()

			records := []models.FeedbackEvent{
				event("s1", "b", models.FeedbackLike, testNow),
				event("s1", "a", models.FeedbackView, testNow),
				event("s1", "a", models.FeedbackLike, testNow),
				event("s1", "c", models.FeedbackSave, testNow.Add(-2*time.Hour)),
				event("s1", "old", models.FeedbackLike, testNow.Add(-48*time.Hour)),
				event("s2", "other", models.FeedbackLike, testNow),
			}
			for _, ev := range records {
				if _, err := l.Record(ctx, ev); err != nil {
					t.Fatalf("Record() error = %v", err)
				}
			}

			events, err := l.Query(ctx, "s1", testNow.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			var got []string
			for _, ev := range events {
				got = append(got, ev.ItemID+":"+string(ev.FeedbackType))
			}
			want := "c:save,a:like,a:view,b:like"
			if strings.Join(got, ",") != want {
				t.Errorf("order = %v, want %s", got, want)
			}

			all, err := l.QueryAll(ctx, time.Time{})
			if err != nil {
				t.Fatalf("QueryAll() error = %v", err)
			}
			if len(all) != len(records) {
				t.Errorf("QueryAll() = %d events, want %d", len(all), len(records))
			}
		})
	}
}

func TestLedger_SessionPrefixIsolation(t *testing.T) {
	l := newTestLedger(t, NewMemoryStore())
	ctx := context.Background()

	if _, err := l.Record(ctx, event("s10", "x", models.FeedbackLike, testNow)); err != nil {
		t.Fatal(err)
	}
	events, err := l.Query(ctx, "s1", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("session s1 must not see events of s10, got %d", len(events))
	}
}

func TestLedger_Defaults(t *testing.T) {
	l := newTestLedger(t, NewMemoryStore())
	ctx := context.Background()

	if _, err := l.Record(ctx, models.FeedbackEvent{SessionID: "s1", ItemID: "i", FeedbackType: models.FeedbackSave}); err != nil {
		t.Fatal(err)
	}
	custom := models.FeedbackEvent{SessionID: "s1", ItemID: "j", FeedbackType: models.FeedbackLike, Value: 3}
	if _, err := l.Record(ctx, custom); err != nil {
		t.Fatal(err)
	}

	events, _ := l.Query(ctx, "s1", time.Time{})
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if !ev.Timestamp.Equal(testNow) {
			t.Errorf("zero timestamp should default to the clock, got %v", ev.Timestamp)
		}
		switch ev.ItemID {
		case "i":
			if ev.Value != 1.5 {
				t.Errorf("save value should default to 1.5, got %v", ev.Value)
			}
		case "j":
			if ev.Value != 3 {
				t.Errorf("explicit value should be kept, got %v", ev.Value)
			}
		}
	}
}

func TestLedger_InvalidEvents(t *testing.T) {
	negativePrice := -5.0
	tests := []struct {
		name string
		ev   models.FeedbackEvent
	}{
		{"missing item", models.FeedbackEvent{SessionID: "s1", FeedbackType: models.FeedbackLike}},
		{"missing session", models.FeedbackEvent{ItemID: "i", FeedbackType: models.FeedbackLike}},
		{"bad session", models.FeedbackEvent{ItemID: "i", SessionID: "s:1", FeedbackType: models.FeedbackLike}},
		{"unknown type", models.FeedbackEvent{ItemID: "i", SessionID: "s1", FeedbackType: "love"}},
		{"long item", models.FeedbackEvent{ItemID: strings.Repeat("i", 257), SessionID: "s1", FeedbackType: models.FeedbackLike}},
		{"huge value", models.FeedbackEvent{ItemID: "i", SessionID: "s1", FeedbackType: models.FeedbackLike, Value: 1e308}},
		{"value below range", models.FeedbackEvent{ItemID: "i", SessionID: "s1", FeedbackType: models.FeedbackDislike, Value: -models.MaxFeedbackValue - 1}},
		{"negative price", models.FeedbackEvent{ItemID: "i", SessionID: "s1", FeedbackType: models.FeedbackLike, Price: &negativePrice}},
	}

	l := newTestLedger(t, NewMemoryStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Record(context.Background(), tt.ev)
			if !errors.Is(err, ErrInvalidFeedbackEvent) {
				t.Fatalf("expected ErrInvalidFeedbackEvent, got %v", err)
			}
		})
	}

	all, err := l.QueryAll(context.Background(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("invalid events must not be stored, found %d", len(all))
	}
}

func TestLedger_AcceptsBoundaryValues(t *testing.T) {
	l := newTestLedger(t, NewMemoryStore())
	for _, v := range []float64{models.MaxFeedbackValue, -models.MaxFeedbackValue} {
		ev := event("s1", fmt.Sprintf("item-%v", v), models.FeedbackLike, testNow)
		ev.Value = v
		if _, err := l.Record(context.Background(), ev); err != nil {
			t.Errorf("Record(value=%v) error = %v", v, err)
		}
	}
}

func TestLedger_Prune(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			l := newTestLedger(t, factory())
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				at := testNow.Add(-time.Duration(i) * 24 * time.Hour)
				if _, err := l.Record(ctx, event("s1", fmt.Sprintf("item-%d", i), models.FeedbackLike, at)); err != nil {
					t.Fatal(err)
				}
			}

			removed, err := l.Prune(ctx, testNow.Add(-36*time.Hour))
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if removed != 3 {
				t.Errorf("removed = %d, want 3", removed)
			}
			left, _ := l.Query(ctx, "s1", time.Time{})
			if len(left) != 2 {
				t.Errorf("expected 2 events left, got %d", len(left))
			}
		})
	}
}

func TestLedger_ConcurrentSessions(t *testing.T) {
	l := newTestLedger(t, NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for s := 0; s < 4; s++ {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(s, i int) {
				defer wg.Done()
				ev := event(fmt.Sprintf("s%d", s), fmt.Sprintf("item-%d", i), models.FeedbackView, testNow)
				if _, err := l.Record(ctx, ev); err != nil {
					t.Errorf("Record() error = %v", err)
				}
			}(s, i)
		}
	}
	wg.Wait()

	for s := 0; s < 4; s++ {
		counts, err := l.Count(ctx, fmt.Sprintf("s%d", s))
		if err != nil {
			t.Fatal(err)
		}
		if counts.Total != 25 {
			t.Errorf("session s%d total = %d, want 25", s, counts.Total)
		}
	}
	if len(l.locks) != 0 {
		t.Errorf("session locks should be released, %d remain", len(l.locks))
	}
}

func TestLedger_ClosedStore(t *testing.T) {
	l, err := New(NewMemoryStore(), DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_ = l.Close()
	if _, err := l.Record(context.Background(), event("s1", "i", models.FeedbackLike, testNow)); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestNew_RejectsUnknownWeight(t *testing.T) {
	cfg := Config{Weights: map[models.FeedbackType]float64{"love": 2}}
	if _, err := New(NewMemoryStore(), cfg, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown feedback type in weight table")
	}
}

func TestNew_RejectsOutOfRangeWeight(t *testing.T) {
	for _, w := range []float64{models.MaxFeedbackValue + 1, -models.MaxFeedbackValue - 1} {
		cfg := Config{Weights: map[models.FeedbackType]float64{models.FeedbackSave: w}}
		if _, err := New(NewMemoryStore(), cfg, zerolog.Nop()); err == nil {
			t.Errorf("expected error for weight %v", w)
		}
	}
}
