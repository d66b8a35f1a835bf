// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// trackingParams are query parameters that never change the page identity.
var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"igshid": {},
	"ref":    {},
	"ref_":   {},
	"mc_cid": {},
	"mc_eid": {},
}

// CanonicalURL normalizes an item URL so the same page reached from
// different sources compares equal:
//   - http and https are folded to https, host is lower-cased
//   - a leading "www." and default ports are dropped
//   - the fragment and a trailing slash are dropped
//   - utm_* and other tracking parameters are removed, the rest sorted
//
// Strings that do not parse as absolute URLs are lower-cased and trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "http" || scheme == "" {
		scheme = "https"
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	query := u.Query()
	for key := range query {
		lk := strings.ToLower(key)
		if _, ok := trackingParams[lk]; ok || strings.HasPrefix(lk, "utm_") {
			query.Del(key)
		}
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)
	if len(query) > 0 {
		// Encode sorts by key.
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// CanonicalID returns the stable item identifier for a URL: the first
// 16 hex characters of the SHA-256 of its canonical form.
func CanonicalID(raw string) string {
	sum := sha256.Sum256([]byte(CanonicalURL(raw)))
	return hex.EncodeToString(sum[:8])
}
