// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package source

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
)

// BreakerConfig configures the circuit breaker around one source.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval after which closed-state counts reset.
	Interval time.Duration

	// Timeout spent open before probing again.
	Timeout time.Duration

	// MinRequests and FailureRatio decide when the breaker trips.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig opens after a 60% failure rate over at least 10
// requests and probes again after 2 minutes.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// breakerClient wraps a Client with sony/gobreaker.
//
// The breaker uses real time for its interval and timeout; tests exercise
// trip behavior through counts rather than waiting out the timeout.
type breakerClient struct {
	Client
	cb     *gobreaker.CircuitBreaker[[]models.RawItem]
	logger zerolog.Logger
}

// WithCircuitBreaker wraps c so that a persistently failing source is
// short-circuited. Open-state rejections surface as ErrSourceUnavailable.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithCircuitBreaker(c Client, cfg BreakerConfig, logger zerolog.Logger) Client {
	name := c.Name()
	log := logger.With().Str("component", "breaker").Str("source", name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.RawItem](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			trip := ratio >= cfg.FailureRatio
			if trip {
				log.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("opening circuit")
			}
			return trip
		},
		IsSuccessful: func(err error) bool {
			// Cancellation by the caller says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &breakerClient{Client: c, cb: cb, logger: log}
}

func (b *breakerClient) Fetch(ctx context.Context, query string, maxResults int) ([]models.RawItem, error) {
	items, err := b.cb.Execute(func() ([]models.RawItem, error) {
		return b.Client.Fetch(ctx, query, maxResults)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.Name(), "rejected").Inc()
			return nil, Unavailable(b.Name(), err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.Name(), "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.Name(), "success").Inc()
	return items, nil
}

// stateToFloat converts a breaker state to its gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
