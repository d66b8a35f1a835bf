// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package recommend orchestrates a recommendation request end to end.

Every entry point follows the same pipeline, bounded by a request timeout:

 1. plan the Mode into sources, a cache purpose and a source query
 2. aggregate the sources through the trend cache, then apply Search filters
 3. compute the session's preference vector (when a session is present)
 4. score and rank the merged items
 5. truncate to the mode's maximum result count

# Modes

Mode is a closed set of variants, each carrying only what it needs:

	Search{Query, IncludeTrends, Filters}  e-commerce sources, plus social when IncludeTrends
	Trending{}                             social sources, query "fashion"
	Seasonal{Season}                       social sources, query "<season> fashion trends"
	Inspiration{Keywords}                  social sources, query "fashion inspiration <kw...>"
	Brand{Brand}                           social sources, query "<brand> fashion"

Recommendations reuses the trending plan and ranks purely by preference.

# Errors

Per-source failures never fail a request; they set Response.Degraded.
Only malformed input is surfaced: ErrInvalidQuery for queries, seasons,
keywords and session ids, and feedback.ErrInvalidFeedbackEvent for
feedback.
*/
package recommend
