// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package feedback persists user feedback events and answers the queries the
preference model and the summary endpoints need.

# Storage Model

Each event is stored under the key

	feedback:<session>:<item>:<type>

so there is at most one event per (item, type, session). Recording the same
triple again replaces the stored event (upsert); a like and a save of the same
item coexist. Keys are prefix-scannable by session.

Two Store implementations exist:

  - BadgerStore: durable storage on BadgerDB (in-memory mode for tests)
  - MemoryStore: map-backed storage for tests and ephemeral deployments

# Concurrency

Writes for one session are serialized through a per-session lock. Writes for
different sessions proceed independently. Reads run against a consistent
snapshot (a single Badger read transaction).

# Validation

Events are validated with the shared validator (internal/validation) before
anything is written:

  - item_id: required, at most 256 characters
  - session_id: required, 1-128 characters of [A-Za-z0-9_-]
  - feedback_type: like, dislike, save or view
  - search_query: at most 512 characters

A zero Timestamp is replaced with the ledger clock and a zero Value with the
weight table entry for the feedback type. Invalid events wrap
ErrInvalidFeedbackEvent.
*/
package feedback
