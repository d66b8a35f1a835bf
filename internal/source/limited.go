// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/ratelimit"
)

// limitedClient gates every fetch through a ratelimit.Limiter.
type limitedClient struct {
	Client
	limiter ratelimit.Limiter
	retries int
}

// WithRateLimit wraps c so each Fetch first acquires permission from limiter
// and reports the outcome back to it.
//
// An upstream ErrRateLimited is retried up to retries times; each retry
// re-acquires after the limiter has grown its backoff. When retries run
// out the failure is reported as ErrSourceUnavailable.
func WithRateLimit(c Client, limiter ratelimit.Limiter, retries int) Client {
	if retries < 0 {
		retries = 0
	}
	return &limitedClient{Client: c, limiter: limiter, retries: retries}
}

func (l *limitedClient) Fetch(ctx context.Context, query string, maxResults int) ([]models.RawItem, error) {
	name := l.Name()
	for attempt := 0; ; attempt++ {
		if err := l.limiter.Acquire(ctx, name); err != nil {
			return nil, Unavailable(name, err)
		}

		items, err := l.Client.Fetch(ctx, query, maxResults)
		if err == nil {
			l.limiter.Success(name)
			return items, nil
		}

		l.limiter.Failure(name)
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if attempt >= l.retries {
			return nil, Unavailable(name, fmt.Errorf("rate limited after %d attempts: %w", attempt+1, err))
		}
	}
}
