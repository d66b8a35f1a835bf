// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package ratelimit gates outbound requests per content source.

Each source gets an independent gate combining two constraints:

  - a minimum inter-request delay, tracked as a "next allowed time"
    watermark advanced on every grant
  - a requests-per-window cap, enforced by golang.org/x/time/rate

Callers block in Acquire until both allow them through. Waiters on the same
source are admitted in arrival order; different sources never wait on each
other.

Backoff:

Failure doubles the effective delay for the next attempt, up to MaxBackoff.
Success resets it to the configured minimum delay.

	limiter := ratelimit.New(ratelimit.DefaultConfig(), nil, logger)
	if err := limiter.Acquire(ctx, "pinterest"); err != nil {
	    return err // context canceled while waiting
	}
	items, err := fetch(ctx)
	if err != nil {
	    limiter.Failure("pinterest")
	} else {
	    limiter.Success("pinterest")
	}

Noop satisfies Limiter without ever waiting and is intended for tests.
*/
package ratelimit
