// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dashboard answers the dashboard's questions: which taxa, terms,
// purposes and sources can be chosen, and what trade network a selection
// produces. Results are cached and concurrent identical requests coalesced.
package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/citesnet/internal/cache"
	"github.com/ManuGH/citesnet/internal/config"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
	"github.com/ManuGH/citesnet/internal/telemetry"
	"github.com/ManuGH/citesnet/internal/trade"
)

const tracerName = "citesnet/dashboard"

// Store is the read side of the trade store.
type Store interface {
	Summary(ctx context.Context) (trade.Summary, error)
	UniqueTaxa(ctx context.Context) ([]string, error)
	TaxonVernaculars(ctx context.Context) ([]trade.Vernacular, error)
	TermsForTaxon(ctx context.Context, taxon string, years *trade.YearRange) ([]string, error)
	PurposesForTaxon(ctx context.Context, taxon string, years *trade.YearRange, term string) ([]string, error)
	SourcesForTaxon(ctx context.Context, taxon string, years *trade.YearRange, term, purpose string) ([]string, error)
	Edges(ctx context.Context, filter trade.Filter) ([]trade.Edge, error)
	Records(ctx context.Context, filter trade.Filter, limit int) ([]trade.Record, error)
	Countries(ctx context.Context) ([]trade.Country, error)
}

// Service is the dashboard backend.
type Service struct {
	store   Store
	cache   cache.Cache
	backend string
	ttl     time.Duration
	cfg     atomic.Pointer[config.DashboardConfig]
	group   singleflight.Group
	stats   *statsTracker
	logger  zerolog.Logger
}

// New returns a service reading from store and caching in c for ttl.
// A nil cache disables caching.
func New(store Store, c cache.Cache, cfg config.DashboardConfig, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	s := &Service{
		store:   store,
		cache:   c,
		backend: c.Stats().Backend,
		ttl:     ttl,
		stats:   newStatsTracker(),
		logger:  xglog.WithComponent("dashboard"),
	}
	s.cfg.Store(&cfg)
	return s
}

// Config returns the dashboard settings in use.
func (s *Service) Config() config.DashboardConfig { return *s.cfg.Load() }

// SetConfig swaps the dashboard settings after a config reload. Cached
// answers were computed under the old settings and are dropped.
func (s *Service) SetConfig(ctx context.Context, cfg config.DashboardConfig) {
	s.cfg.Store(&cfg)
	s.Invalidate(ctx)
}

// Invalidate drops every cached answer, e.g. after an ingest.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Clear(ctx)
	s.logger.Info().Str(xglog.FieldEvent, "dashboard.cache_cleared").Msg("dashboard cache cleared")
}

// cached serves key from the cache, or runs load once for all concurrent
// callers and stores its result.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	backend := s.backend
	if cache.GetJSON(ctx, s.cache, key, &out) {
		metrics.RecordCacheLookup(backend, true)
		s.stats.recordCache(true)
		return out, nil
	}
	metrics.RecordCacheLookup(backend, false)
	s.stats.recordCache(false)

	// The load is shared, so it must outlive the caller that started it.
	ch := s.group.DoChan(key, func() (any, error) {
		ctx, span := telemetry.StartSpan(context.WithoutCancel(ctx), tracerName, "dashboard.load")
		span.SetAttributes(telemetry.CacheAttributes(backend, false)...)
		start := time.Now()
		v, err := load(ctx)
		s.stats.recordQuery(time.Since(start), err)
		telemetry.EndSpan(span, err)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.cache, key, v, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache store failed")
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return out, res.Err
		}
		return res.Val.(T), nil
	}
}

// Summary holds the dataset counts and their formatted forms.
type Summary struct {
	trade.Summary
	RecordsText   string `json:"recordsText"`
	TaxaText      string `json:"taxaText"`
	ExportersText string `json:"exportersText"`
	ImportersText string `json:"importersText"`
}

// Summary returns dataset counts with thousands separators.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return cached(ctx, s, "summary", func(ctx context.Context) (Summary, error) {
		sum, err := s.store.Summary(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("summary: %w", err)
		}
		metrics.SetDatasetRecords(sum.Records)
		return Summary{
			Summary:       sum,
			RecordsText:   humanize.Comma(sum.Records),
			TaxaText:      humanize.Comma(sum.Taxa),
			ExportersText: humanize.Comma(sum.Exporters),
			ImportersText: humanize.Comma(sum.Importers),
		}, nil
	})
}

func yearsKey(years *trade.YearRange) string {
	if years == nil {
		return "*"
	}
	return years.String()
}

func boolKey(b bool) string { return strconv.FormatBool(b) }
