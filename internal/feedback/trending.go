// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/trendloom/internal/models"
)

const (
	// DefaultTrendingWindow is how far back TrendingItems looks when since is zero.
	DefaultTrendingWindow = 7 * 24 * time.Hour

	// DefaultTrendingLimit is used when limit is not positive.
	DefaultTrendingLimit = 20
)

// TrendingItem aggregates positive feedback on one item across sessions.
type TrendingItem struct {
	ItemID     string  `json:"item_id"`
	Title      string  `json:"title,omitempty"`
	SourceSite string  `json:"source_site,omitempty"`
	Brand      string  `json:"brand,omitempty"`
	Category   string  `json:"category,omitempty"`
	Count      int     `json:"count"`
	Average    float64 `json:"average_value"`
	Score      float64 `json:"score"`
}

// TrendingItems returns the items with the most like and save events since
// since, ordered by count, then average value (both descending), then item id.
func (l *Ledger) TrendingItems(ctx context.Context, since time.Time, limit int) ([]TrendingItem, error) {
	if since.IsZero() {
		since = l.now().Add(-DefaultTrendingWindow)
	}
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	events, err := l.QueryAll(ctx, since)
	if err != nil {
		return nil, err
	}

	type acc struct {
		item TrendingItem
		sum  float64
	}
	byItem := make(map[string]*acc)
	for i := range events {
		ev := &events[i]
		if ev.FeedbackType != models.FeedbackLike && ev.FeedbackType != models.FeedbackSave {
			continue
		}
		// Events stored before values were bounded may not be finite.
		if math.IsNaN(ev.Value) || math.IsInf(ev.Value, 0) {
			continue
		}
		a, ok := byItem[ev.ItemID]
		if !ok {
			a = &acc{item: TrendingItem{ItemID: ev.ItemID}}
			byItem[ev.ItemID] = a
		}
		a.item.Count++
		a.sum = models.SaturatingAdd(a.sum, ev.Value)
		// Events are time-ordered, so the newest metadata wins.
		if ev.Title != "" {
			a.item.Title = ev.Title
		}
		if ev.SourceSite != "" {
			a.item.SourceSite = ev.SourceSite
		}
		if ev.Brand != "" {
			a.item.Brand = ev.Brand
		}
		if ev.Category != "" {
			a.item.Category = ev.Category
		}
	}

	out := make([]TrendingItem, 0, len(byItem))
	for _, a := range byItem {
		a.item.Average = a.sum / float64(a.item.Count)
		a.item.Score = models.ClampFinite(float64(a.item.Count) * a.item.Average)
		out = append(out, a.item)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].ItemID < out[j].ItemID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
