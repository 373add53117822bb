// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dashboard

import (
	"context"
	"slices"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/network"
	"github.com/ManuGH/citesnet/internal/render"
	"github.com/ManuGH/citesnet/internal/trade"
)

// Metrics returns the summary as table cells in display order.
func (s Summary) Metrics() []render.Metric {
	return []render.Metric{
		{Label: "Records", Value: s.RecordsText},
		{Label: "Taxa", Value: s.TaxaText},
		{Label: "Exporters", Value: s.ExportersText},
		{Label: "Importers", Value: s.ImportersText},
	}
}

// Page assembles the full dashboard for req. An empty taxon selects the
// first option; choices missing from their option lists fall back to "ALL".
func (s *Service) Page(ctx context.Context, req Request, site about.Attribution) (render.PageData, error) {
	data := render.PageData{Site: site}

	sum, err := s.Summary(ctx)
	if err != nil {
		return data, err
	}
	data.Summary = sum.Metrics()

	cfg := s.Config()

	form := render.Form{
		Scientific: req.Scientific,
		MinYear:    cfg.MinYear,
		MaxYear:    cfg.MaxYear,
		From:       cfg.DefaultFrom,
		To:         cfg.DefaultTo,
		Weighted:   req.Weighted,
	}
	for _, c := range network.Centralities() {
		form.Centralities = append(form.Centralities, c.Label())
	}
	centrality, err := Centrality(req.Centrality)
	if err != nil {
		return data, err
	}
	form.Centrality = centrality.Label()
	if req.Years != nil {
		form.From, form.To = req.Years.From, req.Years.To
	}
	years := &trade.YearRange{From: form.From, To: form.To}

	if form.Taxa, err = s.TaxonOptions(ctx, req.Scientific); err != nil {
		return data, err
	}
	if len(form.Taxa) == 0 {
		data.Form = form
		data.Message = MsgNoResults
		return data, nil
	}
	form.Taxon = choose(form.Taxa, req.Taxon, form.Taxa[0])
	taxon, err := s.ResolveTaxon(ctx, form.Taxon, req.Scientific)
	if err != nil {
		return data, err
	}

	if form.Terms, err = s.TermOptions(ctx, taxon, years); err != nil {
		return data, err
	}
	form.Term = choose(form.Terms, req.Term, trade.AllChoice)

	if form.Purposes, err = s.PurposeOptions(ctx, taxon, years, form.Term); err != nil {
		return data, err
	}
	form.Purpose = choose(form.Purposes, describeChoice(req.Purpose, trade.Purposes), trade.AllChoice)

	if form.Sources, err = s.SourceOptions(ctx, taxon, years, form.Term, form.Purpose); err != nil {
		return data, err
	}
	form.Source = choose(form.Sources, describeChoice(req.Source, trade.Sources), trade.AllChoice)

	res, err := s.Query(ctx, Request{
		Taxon:      form.Taxon,
		Scientific: req.Scientific,
		Years:      years,
		Term:       form.Term,
		Purpose:    form.Purpose,
		Source:     form.Source,
		Exporter:   req.Exporter,
		Importer:   req.Importer,
		Weighted:   req.Weighted,
		Centrality: string(centrality),
	})
	if err != nil {
		return data, err
	}

	form.Exporters, form.Exporter = res.Exporters, res.ExporterName
	form.Importers, form.Importer = res.Importers, res.ImporterName
	data.Form = form
	data.Message = res.Message
	data.Vis = res.Vis
	data.Map = res.Map
	data.Edges = res.Edges
	data.Records = res.Records
	data.Truncated = res.Truncated
	return data, nil
}

func choose(options []string, choice, fallback string) string {
	if choice != "" && slices.Contains(options, choice) {
		return choice
	}
	return fallback
}

// describeChoice turns a code into its description so it matches the options.
func describeChoice(v string, table trade.CodeTable) string {
	if d := table.Description(v); d != "" {
		return d
	}
	return v
}
