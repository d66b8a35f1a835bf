// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package recommend

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/trendloom/internal/source"
	"github.com/tomtom215/trendloom/internal/trendcache"
	"github.com/tomtom215/trendloom/internal/validation"
)

// Mode names, used for result limits, logging and metrics.
const (
	ModeSearch          = "search"
	ModeTrending        = "trending"
	ModeSeasonal        = "seasonal"
	ModeInspiration     = "inspiration"
	ModeBrand           = "brand"
	ModeRecommendations = "recommendations"
)

// maxInspirationKeywords bounds the keywords folded into one query.
const maxInspirationKeywords = 3

// Mode is a request variant. The set is closed.
type Mode interface {
	// Name returns the mode name.
	Name() string

	plan(maxQueryLen int) (plan, error)
}

// Search looks up a free-text query.
type Search struct {
	Query         string
	IncludeTrends bool
	Filters       Filters
}

// Trending returns what social sources currently surface.
type Trending struct{}

// Seasonal returns social trends for a season.
type Seasonal struct {
	Season string
}

// Inspiration returns social content for a set of keywords.
type Inspiration struct {
	Keywords []string
}

// Brand returns social trends for a brand.
type Brand struct {
	Brand string
}

// Name implements Mode.
func (Search) Name() string { return ModeSearch }

// Name implements Mode.
func (Trending) Name() string { return ModeTrending }

// Name implements Mode.
func (Seasonal) Name() string { return ModeSeasonal }

// Name implements Mode.
func (Inspiration) Name() string { return ModeInspiration }

// Name implements Mode.
func (Brand) Name() string { return ModeBrand }

// plan is a resolved mode.
type plan struct {
	mode    string
	kinds   []source.Kind
	purpose trendcache.Purpose

	// query is sent to the sources.
	query string

	// keywords, when set, key the cache independently of their order.
	keywords []string

	// scoreQuery drives keyword matching in the scoring engine.
	scoreQuery string

	// recordViews marks modes whose top results are recorded as views.
	recordViews bool

	// filters, when set, drop aggregated items before scoring.
	filters *Filters
}

func (m Search) plan(maxQueryLen int) (plan, error) {
	q, err := cleanText("query", m.Query, maxQueryLen)
	if err != nil {
		return plan{}, err
	}
	filters, err := m.Filters.normalize()
	if err != nil {
		return plan{}, err
	}
	kinds := []source.Kind{source.KindEcommerce}
	if m.IncludeTrends {
		kinds = append(kinds, source.KindSocial)
	}
	return plan{
		mode:        ModeSearch,
		kinds:       kinds,
		purpose:     trendcache.PurposeSearch,
		query:       q,
		scoreQuery:  q,
		recordViews: true,
		filters:     filters,
	}, nil
}

func (Trending) plan(int) (plan, error) {
	return plan{
		mode:    ModeTrending,
		kinds:   []source.Kind{source.KindSocial},
		purpose: trendcache.PurposeTrending,
		query:   "fashion",
	}, nil
}

func (m Seasonal) plan(int) (plan, error) {
	season, ok := validation.NormalizeSeason(m.Season)
	if !ok {
		return plan{}, fmt.Errorf("%w: unknown season %q", ErrInvalidQuery, m.Season)
	}
	q := season + " fashion trends"
	return plan{
		mode:        ModeSeasonal,
		kinds:       []source.Kind{source.KindSocial},
		purpose:     trendcache.PurposeSeasonal,
		query:       q,
		scoreQuery:  q,
		recordViews: true,
	}, nil
}

func (m Inspiration) plan(maxQueryLen int) (plan, error) {
	seen := make(map[string]struct{}, len(m.Keywords))
	var kws []string
	for _, kw := range m.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		kws = append(kws, kw)
		if len(kws) == maxInspirationKeywords {
			break
		}
	}
	if len(kws) == 0 {
		return plan{}, fmt.Errorf("%w: at least one keyword is required", ErrInvalidQuery)
	}

	joined := strings.Join(kws, " ")
	if utf8.RuneCountInString(joined) > maxQueryLen {
		return plan{}, fmt.Errorf("%w: keywords exceed %d characters", ErrInvalidQuery, maxQueryLen)
	}
	return plan{
		mode:        ModeInspiration,
		kinds:       []source.Kind{source.KindSocial},
		purpose:     trendcache.PurposeInspiration,
		query:       "fashion inspiration " + joined,
		keywords:    kws,
		scoreQuery:  joined,
		recordViews: true,
	}, nil
}

func (m Brand) plan(maxQueryLen int) (plan, error) {
	brand, err := cleanText("brand", m.Brand, maxQueryLen)
	if err != nil {
		return plan{}, err
	}
	return plan{
		mode:       ModeBrand,
		kinds:      []source.Kind{source.KindSocial},
		purpose:    trendcache.PurposeBrand,
		query:      brand + " fashion",
		scoreQuery: brand,
	}, nil
}

func cleanText(field, s string, maxLen int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidQuery, field)
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidQuery, field, maxLen)
	}
	return s, nil
}
