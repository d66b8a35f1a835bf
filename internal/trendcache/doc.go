// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package trendcache bounds the cost and staleness of repeated source queries.

Entries are keyed by (source, normalized query) and expire when
now - fetchedAt > ttl, with the TTL drawn from a per-purpose table:

	search       30m
	trending     60m
	seasonal     60m
	inspiration  30m
	brand        30m

Failure handling:

A failed refill never evicts an existing entry. The expired entry is
returned with Result.Stale set and the caller decides how to surface it.
With no entry to fall back on, the fetch error is returned.

Concurrency:

One refill runs per key at a time. Other callers of that key get the
expired entry immediately (stale-while-revalidate) or, if nothing is
cached yet, wait for the in-flight refill.

Capacity:

The cache holds at most MaxEntries result sets and evicts the
least-recently-fetched entry first. Cleanup, run periodically by the
maintenance supervisor, drops entries that have been expired for longer
than StaleGrace.
*/
package trendcache
