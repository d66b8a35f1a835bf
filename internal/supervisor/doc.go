// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package supervisor runs Trendloom's long-lived services under a suture v4
supervision tree.

	trendloom
	├── maintenance-layer
	│   ├── cache-janitor       expired trend cache and preference memo sweep
	│   └── retention-janitor   feedback ledger archival (FEEDBACK_ARCHIVE_AFTER > 0)
	└── api-layer
	    └── http-server

Crashed services restart with suture's backoff. Each layer restarts
independently, so a failing janitor never takes the HTTP server down.

Supervisor events (restarts, backoff, stop timeouts) are logged through a
log/slog logger bridged onto zerolog; see logging.NewSlogHandler.

Service wrappers live in the services subpackage.
*/
package supervisor
