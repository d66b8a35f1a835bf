// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/trendloom/internal/middleware"
	"github.com/tomtom215/trendloom/internal/models"
)

// Router assembles the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi returns the HTTP handler serving the API and /metrics.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, &models.APIError{Code: ErrCodeNotFound, Message: "Not found"}, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, &models.APIError{Code: ErrCodeMethodNotAllowed, Message: "Method not allowed"}, nil)
	})

	// Health stays outside the rate limiter so probes are never throttled.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		r.Get("/search", router.handler.Search)
		r.Get("/trending", router.handler.Trending)
		r.Get("/seasonal/{season}", router.handler.Seasonal)
		r.Get("/inspiration", router.handler.Inspiration)
		r.Get("/brands/{brand}", router.handler.Brand)

		r.Post("/feedback", router.handler.Feedback)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/recommendations", router.handler.Recommendations)
			r.Get("/preferences", router.handler.Preferences)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
