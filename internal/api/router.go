// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skywatch-io/skywatch/internal/auth"
	"github.com/skywatch-io/skywatch/internal/config"
	"github.com/skywatch-io/skywatch/internal/middleware"
	"github.com/skywatch-io/skywatch/internal/models"
)

// Router wires handlers, authentication, and rate limiting into the Chi
// route tree.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	chiMW   *ChiMiddleware
	cfg     *config.Config
}

// NewRouter creates a router from its dependencies.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware, cfg *config.Config) *Router {
	return &Router{
		handler: handler,
		authMW:  authMW,
		chiMW:   chiMW,
		cfg:     cfg,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMW.CORS())

	// Health probes: permissive rate limit so monitoring can poll often.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMW.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Authentication. Login carries the strictest limit to slow brute
	// force; the whole group is additionally behind the token-bucket
	// limiter from the auth middleware.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.authMW.RateLimit)
		r.Use(APISecurityHeaders())

		r.With(router.chiMW.RateLimitLogin()).Post("/login", router.handler.Login)
		r.Post("/logout", router.handler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(router.authMW.Authenticate)
			r.Get("/check", router.handler.AuthCheck)
		})
	})

	// Data endpoints. Everything below requires authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMW.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		r.Route("/drones", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(router.chiMW.RateLimitWrite())
				r.Post("/hostile", router.handler.CreateHostileDrone)
				r.Post("/hostile/upload", router.handler.UploadHostileDrone)
				r.Put("/hostile/{id}", router.handler.UpdateHostileDrone)
				r.Delete("/hostile/{id}", router.handler.DeleteHostileDrone)
			})

			r.Get("/{category}/recent", router.handler.RecentPositions)
			r.Get("/{category}/last", router.handler.LastPositions)
		})

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", router.handler.ListZones)

			// Zone management is admin-only.
			r.Group(func(r chi.Router) {
				r.Use(router.authMW.RequireRole(models.RoleAdmin))
				r.Use(router.chiMW.RateLimitWrite())
				r.Post("/", router.handler.CreateZone)
				r.Put("/{id}", router.handler.UpdateZone)
				r.Delete("/{id}", router.handler.DeleteZone)
			})
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	// Prometheus scrape endpoint.
	r.Handle("/metrics", promhttp.Handler())

	// Detection images are public once stored; filenames are random
	// UUIDs so paths are not guessable.
	uploadsFS := http.FileServer(http.Dir(router.cfg.Upload.Dir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", uploadsFS))

	return r
}
