// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/metrics"
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

// JanitorService runs a job every interval until canceled. A failed run is
// logged and counted; the loop keeps going, so one bad run never restarts
// the service.
type JanitorService struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	run      JobFunc
	logger   zerolog.Logger
}

// NewJanitorService creates a periodic job. Each run gets at most timeout; a
// non-positive timeout uses the interval.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewJanitorService(name string, interval, timeout time.Duration, run JobFunc, logger zerolog.Logger) (*JanitorService, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("janitor %s: interval must be positive, got %v", name, interval)
	}
	if run == nil {
		return nil, fmt.Errorf("janitor %s: job is required", name)
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &JanitorService{
		name:     name,
		interval: interval,
		timeout:  timeout,
		run:      run,
		logger:   logger.With().Str("service", name).Logger(),
	}, nil
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	j.logger.Info().Dur("interval", j.interval).Msg("janitor starting")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("janitor shutting down")
			return ctx.Err()
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single run and reports its outcome.
func (j *JanitorService) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	err := j.run(runCtx)
	metrics.RecordJanitorRun(j.name, err)
	if err != nil {
		j.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("janitor run failed")
		return
	}
	j.logger.Debug().Dur("duration", time.Since(start)).Msg("janitor run complete")
}

func (j *JanitorService) String() string {
	return j.name
}

// ExpiringCache is a cache with an explicit expiry sweep.
type ExpiringCache interface {
	Cleanup() int
	Len() int
}

// MemoSweeper drops expired memoized entries.
type MemoSweeper interface {
	Sweep() int
}

// NewCacheJanitor sweeps expired trend cache entries and preference memos,
// then publishes the remaining cache size. memo may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCacheJanitor(cache ExpiringCache, memo MemoSweeper, interval time.Duration, logger zerolog.Logger) (*JanitorService, error) {
	log := logger.With().Str("service", "cache-janitor").Logger()
	job := func(context.Context) error {
		removed := cache.Cleanup()
		swept := 0
		if memo != nil {
			swept = memo.Sweep()
		}
		metrics.SetCacheEntries(cache.Len())
		if removed > 0 || swept > 0 {
			log.Debug().Int("cache_removed", removed).Int("memo_removed", swept).Msg("expired entries swept")
		}
		return nil
	}
	return NewJanitorService("cache-janitor", interval, 0, job, logger)
}

// Pruner deletes feedback recorded before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}

// NewRetentionJanitor archives feedback older than archiveAfter. now may be
// nil for time.Now.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRetentionJanitor(ledger Pruner, archiveAfter, interval time.Duration, now func() time.Time, logger zerolog.Logger) (*JanitorService, error) {
	if archiveAfter <= 0 {
		return nil, fmt.Errorf("retention janitor: archive age must be positive, got %v", archiveAfter)
	}
	if now == nil {
		now = time.Now
	}
	log := logger.With().Str("service", "retention-janitor").Logger()
	job := func(ctx context.Context) error {
		cutoff := now().Add(-archiveAfter)
		n, err := ledger.Prune(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("prune feedback before %s: %w", cutoff.Format(time.RFC3339), err)
		}
		if n > 0 {
			log.Info().Int("removed", n).Time("cutoff", cutoff).Msg("feedback archived")
		}
		return nil
	}
	return NewJanitorService("retention-janitor", interval, 0, job, logger)
}
