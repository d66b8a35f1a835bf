// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

// Package preference derives per-session preference vectors from the
// feedback ledger.
//
// Each event contributes its value, decayed linearly with age, to a
// category bucket, a brand bucket and one keyword bucket per keyword of
// its search query:
//
//	decay(age) = max(floor, 1 - (1-floor) * age/horizon)
//
// Events older than the horizon are ignored. A session without events has
// an empty vector, which the scoring engine treats as neutral.
package preference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/cache"
	"github.com/tomtom215/trendloom/internal/feedback"
	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
)

// EventSource is the read side of the feedback ledger.
type EventSource interface {
	Query(ctx context.Context, session string, since time.Time) ([]models.FeedbackEvent, error)
}

// Config configures the model.
type Config struct {
	// Weights is the base weight of events recorded without a value.
	Weights map[models.FeedbackType]float64

	// Horizon is the age at which an event reaches the floor weight and
	// beyond which it is ignored.
	Horizon time.Duration

	// Floor is the minimum decay multiplier, in [0, 1].
	Floor float64

	// MemoTTL bounds how long a computed vector is reused. Zero disables
	// memoization.
	MemoTTL time.Duration

	// MemoSize is the number of sessions kept in the memo.
	MemoSize int
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() Config {
	return Config{
		Weights:  feedback.DefaultWeights(),
		Horizon:  30 * 24 * time.Hour,
		Floor:    0.1,
		MemoTTL:  time.Minute,
		MemoSize: 1024,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("preference horizon must be positive, got %s", c.Horizon)
	}
	if c.Floor < 0 || c.Floor > 1 {
		return fmt.Errorf("preference floor must be within [0, 1], got %v", c.Floor)
	}
	if c.MemoTTL < 0 {
		return errors.New("preference memo ttl must not be negative")
	}
	for t := range c.Weights {
		if !t.Valid() {
			return fmt.Errorf("unknown feedback type %q in weight table", t)
		}
	}
	return nil
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the clock used to age events.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// Model computes preference vectors.
type Model struct {
	events  EventSource
	cfg     Config
	weights map[models.FeedbackType]float64
	now     func() time.Time
	logger  zerolog.Logger

	memo *cache.LRU[string, *Vector]

	// A Compute memoizes its vector only if no Invalidate of the session
	// and no generation prune happened since it started. epoch counts
	// invalidations; generations holds the epoch of each session's latest
	// one and is cleared by Sweep, which records the epoch in pruned.
	genMu       sync.Mutex
	epoch       uint64
	pruned      uint64
	generations map[string]uint64
}

// New creates a Model reading from events.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, events EventSource, logger zerolog.Logger, opts ...Option) (*Model, error) {
	if events == nil {
		return nil, errors.New("preference model requires an event source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preference config: %w", err)
	}

	weights := feedback.DefaultWeights()
	for t, w := range cfg.Weights {
		weights[t] = w
	}

	m := &Model{
		events:      events,
		cfg:         cfg,
		weights:     weights,
		now:         time.Now,
		logger:      logger.With().Str("component", "preference").Logger(),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	if cfg.MemoTTL > 0 {
		m.memo = cache.NewLRU[string, *Vector](cfg.MemoSize, cfg.MemoTTL, cache.WithClock(m.now))
	}
	return m, nil
}

// Compute returns the preference vector of session.
func (m *Model) Compute(ctx context.Context, session string) (*Vector, error) {
	if session == "" {
		return emptyVector(session), nil
	}

	if m.memo != nil {
		if v, ok := m.memo.Get(session); ok {
			metrics.RecordPreferenceMemo("hit")
			return v, nil
		}
		metrics.RecordPreferenceMemo("miss")
	}

	start := m.currentEpoch()

	now := m.now()
	events, err := m.events.Query(ctx, session, now.Add(-m.cfg.Horizon))
	if err != nil {
		return nil, fmt.Errorf("load feedback for %s: %w", session, err)
	}

	v := m.fold(session, events, now)

	if m.memo != nil {
		m.genMu.Lock()
		if m.generations[session] <= start && m.pruned <= start {
			m.memo.Add(session, v)
		}
		m.genMu.Unlock()
	}

	m.logger.Debug().Str("session_id", session).Int("events", len(events)).Int("buckets", v.Len()).Msg("preferences computed")
	return v, nil
}

// Invalidate drops the memoized vector of session. Call it after recording
// feedback for the session.
func (m *Model) Invalidate(session string) {
	if m.memo == nil {
		return
	}
	m.genMu.Lock()
	m.epoch++
	m.generations[session] = m.epoch
	m.memo.Remove(session)
	m.genMu.Unlock()
}

// Sweep evicts expired memo entries and returns how many were removed.
// It also forgets per-session invalidation history.
func (m *Model) Sweep() int {
	if m.memo == nil {
		return 0
	}
	removed := m.memo.CleanupExpired()

	m.genMu.Lock()
	if len(m.generations) > 0 {
		clear(m.generations)
		m.pruned = m.epoch
	}
	m.genMu.Unlock()
	return removed
}

func (m *Model) currentEpoch() uint64 {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	return m.epoch
}

// fold accumulates events into buckets. It is pure in its arguments.
func (m *Model) fold(session string, events []models.FeedbackEvent, now time.Time) *Vector {
	weights := make(map[models.Bucket]float64)
	horizon := float64(m.cfg.Horizon)

	for i := range events {
		ev := &events[i]

		age := float64(now.Sub(ev.Timestamp))
		if age > horizon {
			continue
		}
		w := models.ClampFinite(m.baseWeight(ev) * Decay(age/horizon, m.cfg.Floor))

		if ev.Category != "" {
			accumulate(weights, models.NewBucket(models.PreferenceCategory, ev.Category), w)
		}
		if ev.Brand != "" {
			accumulate(weights, models.NewBucket(models.PreferenceBrand, ev.Brand), w)
		}
		for _, kw := range models.Keywords(ev.SearchQuery) {
			accumulate(weights, models.NewBucket(models.PreferenceKeyword, kw), w)
		}
		if ev.SourceSite != "" {
			accumulate(weights, models.NewBucket(models.PreferenceSite, ev.SourceSite), w)
		}
	}

	return &Vector{session: session, weights: weights}
}

func accumulate(weights map[models.Bucket]float64, b models.Bucket, w float64) {
	weights[b] = models.SaturatingAdd(weights[b], w)
}

func (m *Model) baseWeight(ev *models.FeedbackEvent) float64 {
	if ev.Value != 0 {
		return ev.Value
	}
	return m.weights[ev.FeedbackType]
}

// Decay returns the multiplier for an event whose age is the given fraction
// of the horizon. Negative ages (clock skew) count as fresh.
func Decay(fraction, floor float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	d := 1 - (1-floor)*fraction
	if d < floor {
		return floor
	}
	return d
}
