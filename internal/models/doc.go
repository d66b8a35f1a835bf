// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package models defines the data structures shared across Trendloom.

Model Categories:

 1. Content:
    - RawItem: a record as returned by a content source
    - Item: a canonical, deduplicated candidate keyed by its canonical URL hash
    - ScoredItem: an item with its ranking breakdown (never persisted)

 2. Feedback:
    - FeedbackType: like, dislike, save, view
    - FeedbackEvent: one stored interaction, unique per (item, type, session)

 3. Preferences:
    - PreferenceType and Bucket: the unit of learned affinity (brand=zara)
    - PreferenceWeight: a weight for one (session, type, value) triple

 4. API envelope:
    - APIResponse, APIError, Metadata

Identity:

Two items with the same canonical URL always share an ID regardless of the
source that produced them. See CanonicalURL for the normalization rules.
*/
package models
