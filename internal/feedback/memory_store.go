// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tomtom215/trendloom/internal/models"
)

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]models.FeedbackEvent
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]models.FeedbackEvent)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key string, ev *models.FeedbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.events[key] = copyEvent(ev)
	return nil
}

// Scan implements Store. The snapshot is taken before fn is first called.
func (s *MemoryStore) Scan(ctx context.Context, prefix string, fn func(key string, ev *models.FeedbackEvent) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	keys := make([]string, 0, len(s.events))
	snapshot := make(map[string]models.FeedbackEvent)
	for k, ev := range s.events {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			snapshot[k] = copyEvent(&ev)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := snapshot[k]
		if err := fn(k, &ev); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	for _, k := range keys {
		delete(s.events, k)
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func copyEvent(ev *models.FeedbackEvent) models.FeedbackEvent {
	c := *ev
	if ev.Price != nil {
		p := *ev.Price
		c.Price = &p
	}
	return c
}
