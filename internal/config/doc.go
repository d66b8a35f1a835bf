// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

/*
Package config loads Trendloom configuration with knadh/koanf.

# Configuration Sources

Values are layered, later sources winning:

  - built-in defaults (defaultConfig)
  - a YAML file: CONFIG_PATH, else config.yaml / config.yml in the working
    directory, else /etc/trendloom/config.yaml
  - environment variables (see envMappings)

Content sources can only be declared in the YAML file:

	sources:
	  - name: zalando
	    kind: ecommerce
	    endpoint: http://scraper:9000/zalando/search
	  - name: pinterest
	    kind: social
	    endpoint: http://scraper:9000/pinterest/search
	    query_style: hashtag

List order is source priority when merging duplicate items.

# Common Environment Variables

  - HTTP_PORT: listen port (default: 8080)
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - FEEDBACK_DB_PATH: Badger directory for the feedback ledger (default: /data/feedback)
  - FEEDBACK_IN_MEMORY: keep feedback in memory only (default: false)
  - FEEDBACK_ARCHIVE_AFTER: prune events older than this; 0 disables (default: 0)
  - SCORING_ALPHA: preference weight in the final score (default: 0.5)
  - CORS_ORIGINS: comma-separated allow-list (default: *)
*/
package config
