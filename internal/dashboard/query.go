// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/citesnet/internal/config"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
	"github.com/ManuGH/citesnet/internal/network"
	"github.com/ManuGH/citesnet/internal/render"
	"github.com/ManuGH/citesnet/internal/telemetry"
	"github.com/ManuGH/citesnet/internal/trade"
)

// Request carries the dashboard controls. Purpose and Source take a code, a
// description or "ALL". Exporter and Importer take a country name or code.
type Request struct {
	Taxon      string           `json:"taxon"`
	Scientific bool             `json:"scientific"`
	Years      *trade.YearRange `json:"years,omitempty"`
	Term       string           `json:"term,omitempty"`
	Purpose    string           `json:"purpose,omitempty"`
	Source     string           `json:"source,omitempty"`
	Exporter   string           `json:"exporter,omitempty"`
	Importer   string           `json:"importer,omitempty"`
	Weighted   bool             `json:"weighted"`
	Centrality string           `json:"centrality,omitempty"`
}

// Result is everything the dashboard shows for one Request. Vis and Map are
// nil when there is nothing to plot.
type Result struct {
	Filter           trade.Filter       `json:"filter"`
	Centrality       network.Centrality `json:"centrality"`
	Weighted         bool               `json:"weighted"`
	Edges            []trade.Edge       `json:"edges"`
	Records          []trade.Record     `json:"records"`
	Truncated        bool               `json:"truncated"`
	Nodes            []network.Node     `json:"nodes,omitempty"`
	Links            []network.Link     `json:"links,omitempty"`
	Vis              *render.VisGraph   `json:"vis,omitempty"`
	Map              *render.Figure     `json:"map,omitempty"`
	Exporters        []string           `json:"exporters"`
	Importers        []string           `json:"importers"`
	SelectedExporter string             `json:"selectedExporter,omitempty"`
	SelectedImporter string             `json:"selectedImporter,omitempty"`
	ExporterName     string             `json:"exporterName,omitempty"`
	ImporterName     string             `json:"importerName,omitempty"`
	Message          string             `json:"message,omitempty"`
}

// Plotted reports whether the result carries a graph.
func (r Result) Plotted() bool { return r.Vis != nil }

// Filter resolves the trade filter of req: the taxon is mapped to its
// scientific name, years default to the configured range and purpose and
// source descriptions are mapped to codes.
func (s *Service) Filter(ctx context.Context, req Request) (trade.Filter, error) {
	taxon, err := s.ResolveTaxon(ctx, req.Taxon, req.Scientific)
	if err != nil {
		return trade.Filter{}, err
	}
	cfg := s.Config()
	years := trade.YearRange{From: cfg.DefaultFrom, To: cfg.DefaultTo}
	if req.Years != nil {
		years = *req.Years
	}
	purpose, err := resolveCode(req.Purpose, trade.Purposes, "purpose")
	if err != nil {
		return trade.Filter{}, err
	}
	source, err := resolveCode(req.Source, trade.Sources, "source")
	if err != nil {
		return trade.Filter{}, err
	}
	f := trade.Filter{
		Taxon:   taxon,
		Years:   &years,
		Term:    req.Term,
		Purpose: purpose,
		Source:  source,
	}.Normalized()
	if err := f.Validate(); err != nil {
		return trade.Filter{}, err
	}
	return f, nil
}

// Centrality parses the requested measure. Empty selects Degree.
func Centrality(name string) (network.Centrality, error) {
	if strings.TrimSpace(name) == "" {
		return network.Degree, nil
	}
	return network.ParseCentrality(name)
}

// Query builds the trade network for req.
func (s *Service) Query(ctx context.Context, req Request) (Result, error) {
	filter, err := s.Filter(ctx, req)
	if err != nil {
		return Result{}, err
	}
	centrality, err := Centrality(req.Centrality)
	if err != nil {
		return Result{}, err
	}

	key := strings.Join([]string{
		"query", filter.Key(),
		strings.TrimSpace(req.Exporter), strings.TrimSpace(req.Importer),
		boolKey(req.Weighted), string(centrality),
	}, "|")
	return cached(ctx, s, key, func(ctx context.Context) (Result, error) {
		return s.query(ctx, filter, req, centrality)
	})
}

func (s *Service) query(ctx context.Context, filter trade.Filter, req Request, centrality network.Centrality) (_ Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "dashboard.query", telemetry.FilterAttributes(filter)...)
	defer func() { telemetry.EndSpan(span, err) }()

	logger := xglog.WithContext(ctx, s.logger).With().
		Str(xglog.FieldTaxon, filter.Taxon).
		Str(xglog.FieldCentrality, string(centrality)).
		Logger()

	cfg := s.Config()
	res := Result{Filter: filter, Centrality: centrality, Weighted: req.Weighted}

	if res.Edges, err = s.store.Edges(ctx, filter); err != nil {
		return Result{}, fmt.Errorf("edges: %w", err)
	}
	if res.Records, res.Truncated, err = s.records(ctx, filter, cfg.RecordLimit); err != nil {
		return Result{}, err
	}
	countryList, err := s.store.Countries(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("countries: %w", err)
	}
	countries := trade.NewCountryIndex(countryList)

	if len(res.Edges) == 0 {
		res.Message = MsgNoResults
		metrics.RecordNetwork(string(centrality), "empty", 0, 0)
		logger.Info().Str(xglog.FieldEvent, "dashboard.no_results").Msg("no trade matches the selection")
		return res, nil
	}

	s.selectPair(&res, countries, req.Exporter, req.Importer)

	// Only selections strictly under the cap are drawn.
	if limit := cfg.MaxPlotEdges; limit > 0 && len(res.Edges) >= limit {
		res.Message = MsgTooMany
		metrics.RecordNetwork(string(centrality), "too_large", 0, len(res.Edges))
		logger.Info().
			Str(xglog.FieldEvent, "dashboard.too_many_edges").
			Int(xglog.FieldEdges, len(res.Edges)).
			Int("limit", limit).
			Msg("network too large to plot")
		return res, nil
	}

	g := network.Build(res.Edges, req.Weighted)
	if scaleErr := g.Scale(centrality); scaleErr != nil {
		if !errors.Is(scaleErr, network.ErrNoConvergence) {
			return Result{}, fmt.Errorf("scale by %s: %w", centrality, scaleErr)
		}
		res.Message = MsgNoConvergence
		logger.Warn().Err(scaleErr).Msg("centrality did not converge")
	}
	if err = g.Color(single(res.SelectedExporter), single(res.SelectedImporter), nodePalette(cfg.Palette)); err != nil {
		return Result{}, err
	}

	res.Nodes = g.Nodes()
	res.Links = g.Links()
	vis := render.VisNetwork(g, countries)
	fig := render.GeoMap(g, countries, res.SelectedExporter, res.SelectedImporter, cfg.Palette)
	res.Vis = &vis
	res.Map = &fig

	span.SetAttributes(telemetry.NetworkAttributes(string(centrality), req.Weighted, g.Order(), g.Size())...)
	metrics.RecordNetwork(string(centrality), "built", g.Order(), g.Size())
	logger.Debug().
		Str(xglog.FieldEvent, "dashboard.network_built").
		Int(xglog.FieldNodes, g.Order()).
		Int(xglog.FieldEdges, g.Size()).
		Msg("network built")
	return res, nil
}

// records returns at most limit records and whether more matched.
func (s *Service) records(ctx context.Context, filter trade.Filter, limit int) ([]trade.Record, bool, error) {
	fetch := limit
	if limit > 0 {
		fetch = limit + 1
	}
	recs, err := s.store.Records(ctx, filter, fetch)
	if err != nil {
		return nil, false, fmt.Errorf("records: %w", err)
	}
	if limit > 0 && len(recs) > limit {
		return recs[:limit], true, nil
	}
	return recs, false, nil
}

// Records returns the shipments matching req, at most limit of them
// (the configured record limit when limit <= 0).
func (s *Service) Records(ctx context.Context, req Request, limit int) ([]trade.Record, bool, error) {
	filter, err := s.Filter(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if limit <= 0 {
		limit = s.Config().RecordLimit
	}
	type page struct {
		Records   []trade.Record `json:"records"`
		Truncated bool           `json:"truncated"`
	}
	key := fmt.Sprintf("records|%s|%d", filter.Key(), limit)
	p, err := cached(ctx, s, key, func(ctx context.Context) (page, error) {
		recs, truncated, err := s.records(ctx, filter, limit)
		return page{Records: recs, Truncated: truncated}, err
	})
	return p.Records, p.Truncated, err
}

// Countries returns the country reference table.
func (s *Service) Countries(ctx context.Context) ([]trade.Country, error) {
	return cached(ctx, s, "countries", func(ctx context.Context) ([]trade.Country, error) {
		c, err := s.store.Countries(ctx)
		if err != nil {
			return nil, fmt.Errorf("countries: %w", err)
		}
		return c, nil
	})
}

// Country looks one country up by ISO code, case-insensitively.
func (s *Service) Country(ctx context.Context, code string) (trade.Country, error) {
	countries, err := s.Countries(ctx)
	if err != nil {
		return trade.Country{}, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := trade.NewCountryIndex(countries).ByCode(code); ok {
		return c, nil
	}
	return trade.Country{}, fmt.Errorf("%w: %q", ErrUnknownCountry, code)
}

// selectPair fills the exporter and importer options and selections. Options
// are names of countries present in the reference table; the importer
// options never include the selected exporter. Unmatched choices fall back
// to the first option.
func (s *Service) selectPair(res *Result, countries trade.CountryIndex, exporter, importer string) {
	var exp, imp []string
	for _, e := range res.Edges {
		if c, ok := countries.ByCode(e.Exporter); ok {
			exp = append(exp, c.Name)
		}
		if c, ok := countries.ByCode(e.Importer); ok {
			imp = append(imp, c.Name)
		}
	}
	res.Exporters = sortNames(exp)
	if c, ok := pick(res.Exporters, countries, exporter); ok {
		res.SelectedExporter, res.ExporterName = c.Code, c.Name
	}

	imp = sortNames(imp)
	res.Importers = make([]string, 0, len(imp))
	for _, name := range imp {
		if name != res.ExporterName {
			res.Importers = append(res.Importers, name)
		}
	}
	if c, ok := pick(res.Importers, countries, importer); ok {
		res.SelectedImporter, res.ImporterName = c.Code, c.Name
	}
}

func pick(options []string, countries trade.CountryIndex, choice string) (trade.Country, bool) {
	if len(options) == 0 {
		return trade.Country{}, false
	}
	choice = strings.TrimSpace(choice)
	for _, name := range options {
		c, _ := countries.ByName(name)
		if name == choice || (choice != "" && strings.EqualFold(c.Code, choice)) {
			return c, true
		}
	}
	c, _ := countries.ByName(options[0])
	return c, true
}

func single(code string) []string {
	if code == "" {
		return nil
	}
	return []string{code}
}

func nodePalette(p config.Palette) network.Palette {
	out := network.DefaultPalette()
	if p.Exporter != "" {
		out.Exporter = p.Exporter
	}
	if p.Importer != "" {
		out.Importer = p.Importer
	}
	if p.Default != "" {
		out.Default = p.Default
	}
	return out
}
