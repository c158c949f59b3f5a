// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomradar/roomradar/internal/config"
	"github.com/roomradar/roomradar/internal/recommend"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given engine and security settings.
func NewRouter(engine *recommend.Engine, security config.SecurityConfig) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = security.CORSOrigins
	mwConfig.RateLimitRequests = security.RateLimitReqs
	mwConfig.RateLimitWindow = security.RateLimitWindow
	mwConfig.RateLimitDisabled = security.RateLimitDisabled

	return &Router{
		handler:       NewHandler(engine),
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)

		r.Get("/user/{userID}", router.handler.Recommend)
		r.Get("/search", router.handler.Search)
		r.Get("/status", router.handler.EngineStatus)
	})

	r.Route("/api/v1/behaviors", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitWrite())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)

		r.Post("/", router.handler.RecordBehavior)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAdmin())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)

		r.Post("/features/refresh", router.handler.RefreshFeatures)
		r.Post("/features/refresh/{roomID}", router.handler.RefreshRoom)
		r.Post("/index/rebuild", router.handler.RebuildIndex)
		r.Delete("/cache/users/{userID}", router.handler.InvalidateUserCache)
		r.Delete("/cache/popular", router.handler.InvalidatePopularCache)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
