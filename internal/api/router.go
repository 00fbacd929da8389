// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AgentWorkforce/fleetrelay/internal/config"
	"github.com/AgentWorkforce/fleetrelay/internal/metrics"
	"github.com/AgentWorkforce/fleetrelay/internal/relay"
)

// Router wires the HTTP surface around the gateway core.
type Router struct {
	gateway *relay.Gateway
	cfg     *config.Config
}

// NewRouter creates the router for a gateway.
func NewRouter(gateway *relay.Gateway, cfg *config.Config) *Router {
	return &Router{gateway: gateway, cfg: cfg}
}

// Setup configures all HTTP routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Health gets its own permissive budget so monitors polling every
		// few seconds never trip the API limit.
		r.Route("/health", func(r chi.Router) {
			r.Use(httprate.LimitByIP(1000, time.Minute))
			r.Get("/", rt.Health)
			r.Get("/live", rt.HealthLive)
			r.Get("/ready", rt.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(rt.cfg.Server.RateLimit, time.Minute))
			r.Use(prometheusMiddleware)
			r.Get("/ws", rt.WebSocket)
			r.Get("/messages/catchup", rt.Catchup)
			r.Post("/attention", rt.Attention)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// prometheusMiddleware records request counts and latency per route
// pattern.
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		metrics.APIRequestsTotal.
			WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).
			Inc()
		metrics.APIRequestDuration.
			WithLabelValues(r.Method, pattern).
			Observe(time.Since(start).Seconds())
	})
}
