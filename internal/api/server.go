// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the dashboard page, the JSON API and the health checks.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/rs/zerolog"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/api/middleware"
	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/dashboard"
	"github.com/ManuGH/citesnet/internal/health"
	"github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/ratelimit"
	"github.com/ManuGH/citesnet/internal/render"
	"github.com/ManuGH/citesnet/internal/trade"
)

// Dashboard is the backend the handlers query. *dashboard.Service implements it.
type Dashboard interface {
	Config() config.DashboardConfig
	Summary(ctx context.Context) (dashboard.Summary, error)
	TaxonOptions(ctx context.Context, scientific bool) ([]string, error)
	ResolveTaxon(ctx context.Context, name string, scientific bool) (string, error)
	TermOptions(ctx context.Context, taxon string, years *trade.YearRange) ([]string, error)
	PurposeOptions(ctx context.Context, taxon string, years *trade.YearRange, term string) ([]string, error)
	SourceOptions(ctx context.Context, taxon string, years *trade.YearRange, term, purpose string) ([]string, error)
	Countries(ctx context.Context) ([]trade.Country, error)
	Country(ctx context.Context, code string) (trade.Country, error)
	Query(ctx context.Context, req dashboard.Request) (dashboard.Result, error)
	Records(ctx context.Context, req dashboard.Request, limit int) ([]trade.Record, bool, error)
	Page(ctx context.Context, req dashboard.Request, site about.Attribution) (render.PageData, error)
	Stats() dashboard.ServiceStats
}

// Server represents the HTTP API server for citesnet.
type Server struct {
	dash     Dashboard
	health   *health.Manager
	renderer *render.Renderer
	site     about.Attribution
	limits   config.RateLimitConfig
	limiter  *ratelimit.Limiter
	trusted  ratelimit.Networks
	tracing  string

	staticDir string
	csp       string

	spec      *openapi3.T
	specRoute routers.Router
	logger    zerolog.Logger
}

// ServerOption allows functional configuration of the Server.
type ServerOption func(*Server)

// WithHealthManager serves /healthz and /readyz from m.
func WithHealthManager(m *health.Manager) ServerOption {
	return func(s *Server) {
		s.health = m
	}
}

// WithTracing enables request spans under serviceName.
func WithTracing(serviceName string) ServerOption {
	return func(s *Server) {
		s.tracing = serviceName
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates and initializes a new HTTP API server.
func New(cfg config.AppConfig, dash Dashboard, opts ...ServerOption) (*Server, error) {
	if dash == nil {
		return nil, errors.New("api: dashboard is required")
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}
	spec, specRoute, err := LoadSpec(context.Background())
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	s := &Server{
		dash:      dash,
		renderer:  renderer,
		site:      about.FromConfig(cfg),
		limits:    cfg.RateLimit,
		trusted:   ratelimit.ParseNetworks(cfg.RateLimit.TrustedProxies),
		spec:      spec,
		specRoute: specRoute,
		logger:    log.WithComponent("api"),
		staticDir: cfg.Site.StaticDir,
		csp:       middleware.CSPWithImageOrigins(about.ImageOrigin(cfg.Site.ImagePath)),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.New(ratelimit.FromAppConfig(cfg.RateLimit))
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.NewManager(cfg.Version)
	}
	return s, nil
}
