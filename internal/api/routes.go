// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/api/middleware"
	"github.com/ManuGH/citesnet/internal/ratelimit"
)

// Handler returns the root handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		CSP:                   s.csp,
		EnableMetrics:         true,
		TracingService:        s.tracing,
		EnableLogging:         true,
	})
	r.NotFound(writeNotFound)
	query := s.throttle(ratelimit.ScopeQuery)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.With(query...).Get("/", s.handlePage)
	r.Get(about.StaticPrefix+"*", s.serveStatic)
	r.Head(about.StaticPrefix+"*", s.serveStatic)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.validateRequests)

		r.Get("/openapi.yaml", s.handleOpenAPI)
		r.Get("/about", s.handleAbout)
		r.Get("/stats", s.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(s.throttle(ratelimit.ScopeLookup)...)
			r.Get("/summary", s.handleSummary)
			r.Get("/taxa", s.handleTaxa)
			r.Get("/terms", s.handleTerms)
			r.Get("/purposes", s.handlePurposes)
			r.Get("/sources", s.handleSources)
			r.Get("/countries", s.handleCountries)
			r.Get("/countries/{code}", s.handleCountry)
		})

		r.Group(func(r chi.Router) {
			r.Use(query...)
			r.Get("/network", s.handleNetwork)
			r.Get("/records", s.handleRecords)
		})
	})

	return r
}

// throttle returns the rate limiting middlewares of scope, none when rate
// limiting is disabled. Query routes also get the per-client minute window.
func (s *Server) throttle(scope string) []func(http.Handler) http.Handler {
	if s.limiter == nil {
		return nil
	}
	mws := []func(http.Handler) http.Handler{middleware.Throttle(s.limiter, scope, s.trusted)}
	if scope == ratelimit.ScopeQuery {
		whitelist := ratelimit.ParseNetworks(s.limits.Whitelist)
		mws = append(mws, middleware.QueryRateLimit(s.limits.RequestsPerMinute, whitelist, s.trusted))
	}
	return mws
}
