// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/validation"
)

// ErrInvalidFeedbackEvent is returned when an event fails validation.
var ErrInvalidFeedbackEvent = errors.New("invalid feedback event")

// DefaultWeights returns the base weight per feedback type.
func DefaultWeights() map[models.FeedbackType]float64 {
	return map[models.FeedbackType]float64{
		models.FeedbackLike:    1.0,
		models.FeedbackDislike: -1.0,
		models.FeedbackSave:    1.5,
		models.FeedbackView:    0.1,
	}
}

// Config configures the ledger.
type Config struct {
	// Weights supplies the default Value of events recorded with a zero Value.
	Weights map[models.FeedbackType]float64
}

// DefaultConfig returns the default ledger configuration.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights()}
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for defaulted timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Counts summarizes the events of one session.
type Counts struct {
	ByType map[models.FeedbackType]int `json:"by_type"`
	Total  int                         `json:"total"`
}

// Ledger records and queries feedback events.
type Ledger struct {
	store   Store
	weights map[models.FeedbackType]float64
	now     func() time.Time
	logger  zerolog.Logger

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a Ledger over store. The ledger owns the store and closes it
// on Close.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(store Store, cfg Config, logger zerolog.Logger, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("feedback ledger requires a store")
	}

	weights := DefaultWeights()
	for t, w := range cfg.Weights {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown feedback type %q in weight table", t)
		}
		if math.IsNaN(w) || math.Abs(w) > models.MaxFeedbackValue {
			return nil, fmt.Errorf("weight %v for %q must be within ±%d", w, t, models.MaxFeedbackValue)
		}
		weights[t] = w
	}

	l := &Ledger{
		store:   store,
		weights: weights,
		now:     time.Now,
		logger:  logger.With().Str("component", "feedback").Logger(),
		locks:   make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Weight returns the configured base weight for t.
func (l *Ledger) Weight(t models.FeedbackType) float64 {
	return l.weights[t]
}

// Record validates ev and upserts it. It returns the storage key.
//
//nolint:gocritic // hugeParam: ev passed by value so defaults never leak to the caller
func (l *Ledger) Record(ctx context.Context, ev models.FeedbackEvent) (string, error) {
	if verr := validation.ValidateStruct(&ev); verr != nil {
		metrics.RecordFeedbackEvent(string(ev.FeedbackType), "invalid")
		return "", fmt.Errorf("%w: %s", ErrInvalidFeedbackEvent, verr.Error())
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.now()
	}
	ev.Timestamp = ev.Timestamp.UTC()
	if ev.Value == 0 {
		ev.Value = l.weights[ev.FeedbackType]
	}

	key := ev.Key()

	unlock := l.lockSession(ev.SessionID)
	defer unlock()

	if err := l.store.Put(ctx, key, &ev); err != nil {
		metrics.RecordFeedbackEvent(string(ev.FeedbackType), "error")
		return "", fmt.Errorf("record feedback: %w", err)
	}

	metrics.RecordFeedbackEvent(string(ev.FeedbackType), "ok")
	l.logger.Debug().
		Str("session_id", ev.SessionID).
		Str("item_id", ev.ItemID).
		Str("type", string(ev.FeedbackType)).
		Msg("feedback recorded")
	return key, nil
}

// lockSession serializes writes within one session.
func (l *Ledger) lockSession(session string) func() {
	l.locksMu.Lock()
	sl, ok := l.locks[session]
	if !ok {
		sl = &sessionLock{}
		l.locks[session] = sl
	}
	sl.refs++
	l.locksMu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.locksMu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, session)
		}
		l.locksMu.Unlock()
	}
}

// Query returns the events of session with Timestamp at or after since,
// ordered by timestamp, then item id, then type. A zero since returns all.
func (l *Ledger) Query(ctx context.Context, session string, since time.Time) ([]models.FeedbackEvent, error) {
	if !validation.ValidSessionID(session) {
		return []models.FeedbackEvent{}, nil
	}
	return l.collect(ctx, models.FeedbackSessionPrefix(session), since)
}

// QueryAll returns the events of every session since since, in the same
// order as Query.
func (l *Ledger) QueryAll(ctx context.Context, since time.Time) ([]models.FeedbackEvent, error) {
	return l.collect(ctx, models.FeedbackPrefix, since)
}

func (l *Ledger) collect(ctx context.Context, prefix string, since time.Time) ([]models.FeedbackEvent, error) {
	events := []models.FeedbackEvent{}
	err := l.store.Scan(ctx, prefix, func(_ string, ev *models.FeedbackEvent) error {
		if !since.IsZero() && ev.Timestamp.Before(since) {
			return nil
		}
		events = append(events, *ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.FeedbackType < b.FeedbackType
	})
	return events, nil
}

// Count returns per-type and total event counts for session.
func (l *Ledger) Count(ctx context.Context, session string) (Counts, error) {
	counts := Counts{ByType: make(map[models.FeedbackType]int, len(models.FeedbackTypes))}
	for _, t := range models.FeedbackTypes {
		counts.ByType[t] = 0
	}
	if !validation.ValidSessionID(session) {
		return counts, nil
	}

	err := l.store.Scan(ctx, models.FeedbackSessionPrefix(session), func(_ string, ev *models.FeedbackEvent) error {
		counts.ByType[ev.FeedbackType]++
		counts.Total++
		return nil
	})
	if err != nil {
		return Counts{}, fmt.Errorf("count feedback: %w", err)
	}
	return counts, nil
}

// Prune deletes every event recorded before before and returns how many
// were removed.
func (l *Ledger) Prune(ctx context.Context, before time.Time) (int, error) {
	var keys []string
	err := l.store.Scan(ctx, models.FeedbackPrefix, func(key string, ev *models.FeedbackEvent) error {
		if ev.Timestamp.Before(before) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan for prune: %w", err)
	}
	if err := l.store.Delete(ctx, keys); err != nil {
		return 0, fmt.Errorf("prune feedback: %w", err)
	}

	if len(keys) > 0 {
		metrics.RecordLedgerPruned(len(keys))
		l.logger.Info().Int("removed", len(keys)).Time("before", before).Msg("pruned feedback events")
	}
	return len(keys), nil
}

// Close closes the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
