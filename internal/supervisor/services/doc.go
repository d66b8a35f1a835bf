// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package services adapts Trendloom components to suture.Service.

HTTPServerService turns the blocking ListenAndServe/Shutdown pair of an
*http.Server into a context-aware Serve. JanitorService runs a job on a fixed
interval; NewCacheJanitor and NewRetentionJanitor build the two jobs the
server registers.

Every service implements fmt.Stringer so supervisor events name it.
Returning an error from Serve asks the supervisor for a restart; returning
ctx.Err() after cancellation is a clean stop.
*/
package services
