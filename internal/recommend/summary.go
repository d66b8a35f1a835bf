// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/trendloom/internal/feedback"
	"github.com/tomtom215/trendloom/internal/models"
)

// Summary describes what the service has learned about a session.
type Summary struct {
	SessionID      string                      `json:"session_id"`
	TopBrands      []models.PreferenceWeight   `json:"top_brands"`
	TopCategories  []models.PreferenceWeight   `json:"top_categories"`
	TopKeywords    []models.PreferenceWeight   `json:"top_keywords"`
	TopSites       []models.PreferenceWeight   `json:"top_sites"`
	FeedbackCounts map[models.FeedbackType]int `json:"feedback_counts"`
	TotalFeedback  int                         `json:"total_feedback"`
	TrendingItems  []feedback.TrendingItem     `json:"trending_items"`
	BucketCount    int                         `json:"bucket_count"`
}

// PreferencesSummary returns the strongest learned preferences of
// sessionID, its feedback counts and the items trending across sessions.
func (s *Service) PreferencesSummary(ctx context.Context, sessionID string) (*Summary, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	v, err := s.deps.Preferences.Compute(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("compute preferences: %w", err)
	}
	counts, err := s.deps.Ledger.Count(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}
	var since time.Time
	if s.cfg.TrendingWindow > 0 {
		since = s.now().Add(-s.cfg.TrendingWindow)
	}
	trending, err := s.deps.Ledger.TrendingItems(ctx, since, s.cfg.SummaryTopN)
	if err != nil {
		return nil, fmt.Errorf("trending items: %w", err)
	}

	n := s.cfg.SummaryTopN
	return &Summary{
		SessionID:      sessionID,
		TopBrands:      v.Top(models.PreferenceBrand, n),
		TopCategories:  v.Top(models.PreferenceCategory, n),
		TopKeywords:    v.Top(models.PreferenceKeyword, n),
		TopSites:       v.Top(models.PreferenceSite, n),
		FeedbackCounts: counts.ByType,
		TotalFeedback:  counts.Total,
		TrendingItems:  trending,
		BucketCount:    v.Len(),
	}, nil
}
