// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trendloom/internal/metrics"
)

// Limiter gates requests to named sources.
type Limiter interface {
	// Acquire blocks until a request to sourceID is permitted.
	// It only fails when ctx is done before permission is granted.
	Acquire(ctx context.Context, sourceID string) error

	// Success reports a successful upstream call, resetting backoff.
	Success(sourceID string)

	// Failure reports a failed upstream call, growing backoff.
	Failure(sourceID string)
}

// Config holds the limits applied to one source.
type Config struct {
	// MinDelay is the minimum spacing between two requests.
	MinDelay time.Duration

	// Window and RequestsPerWindow define the rate cap (30 per minute by default).
	Window            time.Duration
	RequestsPerWindow int

	// MaxBackoff caps the delay reached through repeated failures.
	MaxBackoff time.Duration
}

// DefaultConfig returns the default per-source limits.
func DefaultConfig() Config {
	return Config{
		MinDelay:          2 * time.Second,
		Window:            time.Minute,
		RequestsPerWindow: 30,
		MaxBackoff:        time.Minute,
	}
}

// Validate checks the limits for consistency.
func (c *Config) Validate() error {
	if c.MinDelay < 0 {
		return fmt.Errorf("min delay must be non-negative, got %s", c.MinDelay)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.RequestsPerWindow < 1 {
		return fmt.Errorf("requests per window must be at least 1, got %d", c.RequestsPerWindow)
	}
	if c.MaxBackoff < c.MinDelay {
		return fmt.Errorf("max backoff %s must be >= min delay %s", c.MaxBackoff, c.MinDelay)
	}
	return nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a PerSource limiter.
type Option func(*PerSource)

// WithClock replaces the wall clock and sleep used by the limiter.
func WithClock(now func() time.Time, sleep SleepFunc) Option {
	return func(l *PerSource) {
		l.now = now
		l.sleep = sleep
	}
}

// PerSource is a Limiter with one independent gate per source id.
// Gates are created on first use from the source override or the defaults.
type PerSource struct {
	defaults  Config
	overrides map[string]Config
	logger    zerolog.Logger

	now   func() time.Time
	sleep SleepFunc

	mu    sync.Mutex
	gates map[string]*gate
}

// gate is the state for a single source.
type gate struct {
	cfg Config

	// ticket admits one waiter at a time; blocked senders on a channel
	// are released in arrival order.
	ticket chan struct{}
	window *rate.Limiter

	mu        sync.Mutex
	next      time.Time
	lastGrant time.Time
	failures  int
}

// New creates a per-source limiter.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(defaults Config, overrides map[string]Config, logger zerolog.Logger, opts ...Option) *PerSource {
	l := &PerSource{
		defaults:  defaults,
		overrides: overrides,
		logger:    logger.With().Str("component", "ratelimit").Logger(),
		now:       time.Now,
		sleep:     sleepContext,
		gates:     make(map[string]*gate),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *PerSource) gate(sourceID string) *gate {
	l.mu.Lock()
	defer l.mu.Unlock()

	if g, ok := l.gates[sourceID]; ok {
		return g
	}

	cfg := l.defaults
	if o, ok := l.overrides[sourceID]; ok {
		cfg = o
	}
	g := &gate{
		cfg:    cfg,
		ticket: make(chan struct{}, 1),
		window: rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.RequestsPerWindow)), cfg.RequestsPerWindow),
	}
	l.gates[sourceID] = g
	return g
}

// Acquire implements Limiter.
func (l *PerSource) Acquire(ctx context.Context, sourceID string) error {
	g := l.gate(sourceID)

	select {
	case g.ticket <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.ticket }()

	now := l.now()

	g.mu.Lock()
	wait := g.next.Sub(now)
	g.mu.Unlock()
	if wait < 0 {
		wait = 0
	}

	res := g.window.ReserveN(now, 1)
	if d := res.DelayFrom(now); d > wait {
		wait = d
	}

	if wait > 0 {
		l.logger.Debug().Str("source", sourceID).Dur("wait", wait).Msg("waiting for rate limit")
		if err := l.sleep(ctx, wait); err != nil {
			res.CancelAt(now)
			return err
		}
	}

	granted := now.Add(wait)
	g.mu.Lock()
	g.lastGrant = granted
	g.next = granted.Add(g.delayLocked())
	g.mu.Unlock()

	metrics.RecordRateLimitWait(sourceID, wait)
	return nil
}

// Success implements Limiter.
func (l *PerSource) Success(sourceID string) {
	g := l.gate(sourceID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failures == 0 {
		return
	}
	g.failures = 0
	g.next = g.lastGrant.Add(g.cfg.MinDelay)
	metrics.SetRateLimitBackoff(sourceID, g.cfg.MinDelay)
	l.logger.Debug().Str("source", sourceID).Msg("backoff reset")
}

// Failure implements Limiter.
func (l *PerSource) Failure(sourceID string) {
	g := l.gate(sourceID)
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures++
	delay := g.delayLocked()
	if next := g.lastGrant.Add(delay); next.After(g.next) {
		g.next = next
	}
	metrics.SetRateLimitBackoff(sourceID, delay)
	l.logger.Warn().Str("source", sourceID).Int("failures", g.failures).Dur("delay", delay).Msg("upstream failure, backing off")
}

// Delay returns the current effective delay for sourceID.
func (l *PerSource) Delay(sourceID string) time.Duration {
	g := l.gate(sourceID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delayLocked()
}

// delayLocked returns MinDelay doubled once per consecutive failure,
// capped at MaxBackoff. g.mu must be held.
func (g *gate) delayLocked() time.Duration {
	delay := g.cfg.MinDelay
	if g.failures == 0 {
		return delay
	}
	if delay <= 0 {
		delay = time.Second
	}
	for i := 0; i < g.failures; i++ {
		delay *= 2
		if delay >= g.cfg.MaxBackoff {
			return g.cfg.MaxBackoff
		}
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Noop is a Limiter that never waits.
type Noop struct{}

// Acquire implements Limiter.
func (Noop) Acquire(ctx context.Context, _ string) error { return ctx.Err() }

// Success implements Limiter.
func (Noop) Success(string) {}

// Failure implements Limiter.
func (Noop) Failure(string) {}
