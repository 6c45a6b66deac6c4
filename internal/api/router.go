// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/focalhq/focalis/internal/config"
)

// Router wires the handlers into a chi mux.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router for the given handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order. CORS is global so
	// OPTIONS preflights are handled before routing.
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(&router.cfg.API))
	r.Use(UserScope())
	r.Use(RequestLogger())

	r.Route("/api/v1", func(r chi.Router) {
		// Health and metrics stay outside the rate limit so monitors are
		// never throttled out.
		r.Get("/health", router.handler.Health)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(&router.cfg.API))
			r.Use(PrometheusMetrics())

			r.Route("/activities", func(r chi.Router) {
				r.Post("/", router.handler.CreateActivity)
				r.Get("/", router.handler.ListActivities)
			})
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", router.handler.CreateSession)
				r.Get("/", router.handler.ListSessions)
			})
			r.Route("/moods", func(r chi.Router) {
				r.Post("/", router.handler.CreateMood)
				r.Get("/", router.handler.ListMoods)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/summary", router.handler.Summary)
				r.Get("/forecast", router.handler.Forecast)
				r.Get("/forecast/models", router.handler.ForecastModels)
				r.Get("/fatigue", router.handler.Fatigue)
				r.Get("/context-switches", router.handler.ContextSwitches)
				r.Get("/procrastination", router.handler.Procrastination)
				r.Get("/mood-causality", router.handler.MoodCausality)
				r.Get("/classification", router.handler.Classification)
				r.Get("/weights", router.handler.WeightsReport)
				r.Post("/weights/feedback", router.handler.WeightsFeedback)
			})
		})
	})

	return r
}
