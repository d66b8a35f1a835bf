// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/trendloom/internal/metrics"
)

var _ suture.Service = (*JanitorService)(nil)

type fakeCache struct {
	removed  int
	size     int
	cleanups atomic.Int32
}

func (c *fakeCache) Cleanup() int {
	c.cleanups.Add(1)
	return c.removed
}

func (c *fakeCache) Len() int { return c.size }

type fakeMemo struct{ sweeps atomic.Int32 }

func (m *fakeMemo) Sweep() int {
	m.sweeps.Add(1)
	return 2
}

type fakePruner struct {
	mu     sync.Mutex
	before []time.Time
	err    error
}

func (p *fakePruner) Prune(_ context.Context, before time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.before = append(p.before, before)
	return 3, p.err
}

func TestNewJanitorService_Validation(t *testing.T) {
	noop := func(context.Context) error { return nil }
	tests := []struct {
		name     string
		interval time.Duration
		run      JobFunc
		wantErr  bool
	}{
		{"valid", time.Minute, noop, false},
		{"zero interval", 0, noop, true},
		{"nil job", time.Minute, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJanitorService("job", tt.interval, 0, tt.run, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewJanitorService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJanitorService_RunOnceRecordsOutcome(t *testing.T) {
	boom := errors.New("boom")
	var fail atomic.Bool
	j, err := NewJanitorService("test-janitor", time.Hour, 0, func(context.Context) error {
		if fail.Load() {
			return boom
		}
		return nil
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	okBefore := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("test-janitor", "ok"))
	errBefore := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("test-janitor", "error"))

	j.RunOnce(context.Background())
	fail.Store(true)
	j.RunOnce(context.Background())

	if got := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("test-janitor", "ok")) - okBefore; got != 1 {
		t.Errorf("ok runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("test-janitor", "error")) - errBefore; got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}

func TestJanitorService_ServeTicksUntilCanceled(t *testing.T) {
	var runs atomic.Int32
	j, _ := NewJanitorService("ticker", 5*time.Millisecond, 0, func(context.Context) error {
		runs.Add(1)
		return errors.New("failures do not stop the loop")
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- j.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if runs.Load() < 3 {
		t.Errorf("job ran %d times, want at least 3", runs.Load())
	}
	if j.String() != "ticker" {
		t.Errorf("String() = %q", j.String())
	}
}

func TestCacheJanitor(t *testing.T) {
	cache := &fakeCache{removed: 4, size: 7}
	memo := &fakeMemo{}
	j, err := NewCacheJanitor(cache, memo, time.Minute, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	j.RunOnce(context.Background())

	if cache.cleanups.Load() != 1 {
		t.Errorf("cache cleaned %d times, want 1", cache.cleanups.Load())
	}
	if memo.sweeps.Load() != 1 {
		t.Errorf("memo swept %d times, want 1", memo.sweeps.Load())
	}
	if got := testutil.ToFloat64(metrics.CacheEntries); got != 7 {
		t.Errorf("cache entries gauge = %v, want 7", got)
	}

	t.Run("nil memo", func(t *testing.T) {
		j, err := NewCacheJanitor(&fakeCache{}, nil, time.Minute, zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		j.RunOnce(context.Background())
	})
}

func TestRetentionJanitor(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("prunes before now minus archive age", func(t *testing.T) {
		p := &fakePruner{}
		j, err := NewRetentionJanitor(p, 48*time.Hour, time.Hour, clock, zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		j.RunOnce(context.Background())

		if len(p.before) != 1 {
			t.Fatalf("Prune called %d times, want 1", len(p.before))
		}
		if want := now.Add(-48 * time.Hour); !p.before[0].Equal(want) {
			t.Errorf("cutoff = %v, want %v", p.before[0], want)
		}
	})

	t.Run("prune error is counted", func(t *testing.T) {
		p := &fakePruner{err: errors.New("disk full")}
		j, _ := NewRetentionJanitor(p, time.Hour, time.Hour, clock, zerolog.Nop())
		before := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("retention-janitor", "error"))
		j.RunOnce(context.Background())
		if got := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("retention-janitor", "error")) - before; got != 1 {
			t.Errorf("error runs = %v, want 1", got)
		}
	})

	t.Run("archive age must be positive", func(t *testing.T) {
		if _, err := NewRetentionJanitor(&fakePruner{}, 0, time.Hour, clock, zerolog.Nop()); err == nil {
			t.Error("expected error for zero archive age")
		}
	})
}
