// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package api

import (
	"context"
	"time"

	"github.com/tomtom215/trendloom/internal/recommend"
	"github.com/tomtom215/trendloom/internal/source"
)

// Recommender is the recommendation surface the handlers call.
// *recommend.Service implements it.
type Recommender interface {
	Search(ctx context.Context, req recommend.Search, sessionID string) (*recommend.Response, error)
	Trending(ctx context.Context, sessionID string) (*recommend.Response, error)
	SeasonalTrends(ctx context.Context, season, sessionID string) (*recommend.Response, error)
	Inspiration(ctx context.Context, keywords []string, sessionID string) (*recommend.Response, error)
	BrandTrends(ctx context.Context, brand, sessionID string) (*recommend.Response, error)
	Recommendations(ctx context.Context, sessionID string) (*recommend.Response, error)
	RecordFeedback(ctx context.Context, in recommend.FeedbackInput) (string, error)
	PreferencesSummary(ctx context.Context, sessionID string) (*recommend.Summary, error)
}

// SourceLister reports the configured sources for the health endpoint.
type SourceLister interface {
	Names(kinds ...source.Kind) []string
}

// Version is reported by the health endpoint. It is set at build time.
var Version = "dev"

// Handler serves the HTTP API.
type Handler struct {
	svc       Recommender
	sources   SourceLister
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(svc Recommender, sources SourceLister) *Handler {
	return &Handler{
		svc:       svc,
		sources:   sources,
		startTime: time.Now(),
	}
}
