// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
)

// maxConflictRetries bounds retries of a write that lost a transaction race.
const maxConflictRetries = 5

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory (tests, ephemeral deployments).
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// Validate checks the configuration.
func (c *BadgerConfig) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("feedback store path is required unless in_memory is set")
	}
	return nil
}

// BadgerStore is a Store backed by BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
	logger zerolog.Logger
}

// OpenBadger opens (or creates) a BadgerStore.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenBadger(cfg BadgerConfig, logger zerolog.Logger) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feedback store config: %w", err)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	log := logger.With().Str("component", "feedback-store").Logger()
	log.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("feedback store opened")

	return &BadgerStore{db: db, logger: log}, nil
}

// Put implements Store. Transaction conflicts are retried; the last
// writer wins.
func (s *BadgerStore) Put(ctx context.Context, key string, ev *models.FeedbackEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal feedback event: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.SetEntry(badger.NewEntry([]byte(key), data))
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			return fmt.Errorf("write feedback event: %w", err)
		}
		metrics.RecordLedgerConflict()
		s.logger.Debug().Str("key", key).Int("attempt", attempt+1).Msg("write conflict, retrying")
	}
}

// Scan implements Store.
func (s *BadgerStore) Scan(ctx context.Context, prefix string, fn func(key string, ev *models.FeedbackEvent) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var ev models.FeedbackEvent
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("key", string(item.Key())).Msg("skipping unreadable feedback event")
				continue
			}
			if err := fn(string(item.Key()), &ev); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, keys []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	if len(keys) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete([]byte(k)); err != nil {
			return fmt.Errorf("delete feedback event: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush feedback deletes: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}
