// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendloom/internal/aggregate"
	"github.com/tomtom215/trendloom/internal/feedback"
	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/preference"
	"github.com/tomtom215/trendloom/internal/scoring"
	"github.com/tomtom215/trendloom/internal/source"
	"github.com/tomtom215/trendloom/internal/validation"
)

// ErrInvalidQuery is returned for malformed request input.
var ErrInvalidQuery = errors.New("invalid query")

// Aggregator merges source results.
type Aggregator interface {
	Aggregate(ctx context.Context, req aggregate.Request) (*aggregate.Result, error)
}

// SourceLister resolves source kinds into source names.
type SourceLister interface {
	Names(kinds ...source.Kind) []string
}

// Preferences computes and invalidates preference vectors.
type Preferences interface {
	Compute(ctx context.Context, session string) (*preference.Vector, error)
	Invalidate(session string)
}

// Ledger is the feedback store seen by the service.
type Ledger interface {
	Record(ctx context.Context, ev models.FeedbackEvent) (string, error)
	Count(ctx context.Context, session string) (feedback.Counts, error)
	TrendingItems(ctx context.Context, since time.Time, limit int) ([]feedback.TrendingItem, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Sources     SourceLister
	Aggregator  Aggregator
	Preferences Preferences
	Ledger      Ledger
	Scorer      *scoring.Engine
}

// Response is a ranked result list.
type Response struct {
	Mode          string              `json:"mode"`
	Query         string              `json:"query,omitempty"`
	SessionID     string              `json:"session_id,omitempty"`
	Items         []models.ScoredItem `json:"items"`
	Count         int                 `json:"count"`
	Degraded      bool                `json:"degraded"`
	Stale         bool                `json:"stale"`
	FailedSources []string            `json:"failed_sources,omitempty"`
	StaleSources  []string            `json:"stale_sources,omitempty"`
}

// FeedbackInput is a feedback submission.
type FeedbackInput struct {
	SessionID    string   `json:"session_id"`
	ItemID       string   `json:"item_id"`
	FeedbackType string   `json:"feedback_type"`
	Value        float64  `json:"value,omitempty"`
	SearchQuery  string   `json:"search_query,omitempty"`
	Title        string   `json:"title,omitempty"`
	Category     string   `json:"category,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	SourceSite   string   `json:"source_site,omitempty"`
}

// Service answers recommendation requests.
type Service struct {
	cfg    Config
	deps   Deps
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for durations and view timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, deps Deps, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	if deps.Sources == nil || deps.Aggregator == nil || deps.Preferences == nil || deps.Ledger == nil || deps.Scorer == nil {
		return nil, errors.New("recommend service requires sources, aggregator, preferences, ledger and scorer")
	}
	s := &Service{
		cfg:    cfg,
		deps:   deps,
		now:    time.Now,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search ranks results for a free-text query, dropping items that fail
// req.Filters.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (s *Service) Search(ctx context.Context, req Search, sessionID string) (*Response, error) {
	return s.Run(ctx, req, sessionID)
}

// Trending ranks what social sources currently surface.
func (s *Service) Trending(ctx context.Context, sessionID string) (*Response, error) {
	return s.Run(ctx, Trending{}, sessionID)
}

// SeasonalTrends ranks social trends for season.
func (s *Service) SeasonalTrends(ctx context.Context, season, sessionID string) (*Response, error) {
	return s.Run(ctx, Seasonal{Season: season}, sessionID)
}

// Inspiration ranks social content for keywords.
func (s *Service) Inspiration(ctx context.Context, keywords []string, sessionID string) (*Response, error) {
	return s.Run(ctx, Inspiration{Keywords: keywords}, sessionID)
}

// BrandTrends ranks social trends for brand.
func (s *Service) BrandTrends(ctx context.Context, brand, sessionID string) (*Response, error) {
	return s.Run(ctx, Brand{Brand: brand}, sessionID)
}

// Recommendations ranks trending content purely by the session's
// preferences. A session is required.
func (s *Service) Recommendations(ctx context.Context, sessionID string) (*Response, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	p, _ := Trending{}.plan(s.cfg.MaxQueryLength)
	p.mode = ModeRecommendations
	p.scoreQuery = ""
	return s.execute(ctx, p, sessionID, scoring.Options{IgnoreBaseRelevance: true})
}

// Run executes mode for sessionID. An empty sessionID is anonymous.
func (s *Service) Run(ctx context.Context, mode Mode, sessionID string) (*Response, error) {
	if mode == nil {
		return nil, fmt.Errorf("%w: mode is required", ErrInvalidQuery)
	}
	if sessionID != "" {
		if err := requireSession(sessionID); err != nil {
			return nil, err
		}
	}
	p, err := mode.plan(s.cfg.MaxQueryLength)
	if err != nil {
		metrics.RecordRecommendRequest(mode.Name(), "invalid", 0)
		return nil, err
	}
	return s.execute(ctx, p, sessionID, scoring.Options{})
}

//nolint:gocritic // hugeParam: p passed by value for immutability
func (s *Service) execute(ctx context.Context, p plan, sessionID string, opts scoring.Options) (*Response, error) {
	start := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	logger := s.logger.With().Str("mode", p.mode).Str("session_id", sessionID).Logger()

	result, err := s.deps.Aggregator.Aggregate(ctx, aggregate.Request{
		Query:    p.query,
		Keywords: p.keywords,
		Sources:  s.deps.Sources.Names(p.kinds...),
		Purpose:  p.purpose,
	})
	if err != nil {
		metrics.RecordRecommendRequest(p.mode, "error", s.now().Sub(start))
		return nil, fmt.Errorf("aggregate %s: %w", p.mode, err)
	}

	var prefs scoring.Preferences
	if sessionID != "" {
		v, err := s.deps.Preferences.Compute(ctx, sessionID)
		if err != nil {
			// Preferences refine ranking; without them the ranking is neutral.
			logger.Warn().Err(err).Msg("preferences unavailable, ranking without them")
		} else {
			prefs = v
		}
	}

	items := result.Items
	if p.filters != nil {
		items = p.filters.apply(items)
		logger.Debug().Int("aggregated", len(result.Items)).Int("kept", len(items)).Msg("filters applied")
	}

	scored := s.deps.Scorer.Score(items, prefs, p.scoreQuery, opts)
	if limit := s.cfg.maxResults(p.mode); len(scored) > limit {
		scored = scored[:limit]
	}

	resp := &Response{
		Mode:          p.mode,
		Query:         p.query,
		SessionID:     sessionID,
		Items:         scored,
		Count:         len(scored),
		Degraded:      result.Degraded,
		Stale:         result.Stale,
		FailedSources: result.FailedSources,
		StaleSources:  result.StaleSources,
	}

	if p.recordViews && s.cfg.RecordViews && sessionID != "" {
		s.recordViews(ctx, sessionID, p.scoreQuery, scored, logger)
	}

	outcome := "ok"
	if resp.Degraded {
		outcome = "degraded"
		metrics.RecordRecommendDegraded(p.mode)
	}
	metrics.RecordRecommendRequest(p.mode, outcome, s.now().Sub(start))

	logger.Debug().
		Int("items", resp.Count).
		Bool("degraded", resp.Degraded).
		Bool("stale", resp.Stale).
		Dur("duration", s.now().Sub(start)).
		Msg("request served")
	return resp, nil
}

// recordViews stores the top results as view feedback. Failures are logged only.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (s *Service) recordViews(ctx context.Context, sessionID, query string, scored []models.ScoredItem, logger zerolog.Logger) {
	n := s.cfg.ViewTopN
	if n > len(scored) {
		n = len(scored)
	}
	if n == 0 {
		return
	}

	at := s.now()
	for i := 0; i < n; i++ {
		item := &scored[i].Item
		ev := models.FeedbackEvent{
			ItemID:       item.ID,
			FeedbackType: models.FeedbackView,
			SessionID:    sessionID,
			SearchQuery:  query,
			Timestamp:    at,
			Category:     item.Category,
			Brand:        item.Brand,
			Price:        item.Price,
			Title:        item.Title,
			SourceSite:   item.SourceSite,
		}
		if _, err := s.deps.Ledger.Record(ctx, ev); err != nil {
			logger.Warn().Err(err).Str("item_id", item.ID).Msg("failed to record view")
		}
	}
	s.deps.Preferences.Invalidate(sessionID)
}

// RecordFeedback validates and stores one feedback event and invalidates
// the session's memoized preferences. It returns the storage key.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (s *Service) RecordFeedback(ctx context.Context, in FeedbackInput) (string, error) {
	ev := models.FeedbackEvent{
		ItemID:       in.ItemID,
		FeedbackType: models.FeedbackType(in.FeedbackType),
		Value:        in.Value,
		SessionID:    in.SessionID,
		SearchQuery:  in.SearchQuery,
		Category:     in.Category,
		Brand:        in.Brand,
		Price:        in.Price,
		Title:        in.Title,
		SourceSite:   in.SourceSite,
	}
	if t, err := models.ParseFeedbackType(in.FeedbackType); err == nil {
		ev.FeedbackType = t
	}

	key, err := s.deps.Ledger.Record(ctx, ev)
	if err != nil {
		return "", err
	}
	s.deps.Preferences.Invalidate(in.SessionID)

	s.logger.Info().
		Str("session_id", in.SessionID).
		Str("item_id", in.ItemID).
		Str("type", string(ev.FeedbackType)).
		Msg("feedback recorded")
	return key, nil
}

func requireSession(sessionID string) error {
	if !validation.ValidSessionID(sessionID) {
		return fmt.Errorf("%w: session id must be 1-128 characters of letters, digits, '-' or '_'", ErrInvalidQuery)
	}
	return nil
}
