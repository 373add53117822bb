// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/cache"
	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/dashboard"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/render"
	"github.com/ManuGH/citesnet/internal/trade"
)

type graphOptions struct {
	req            dashboard.Request
	from, to       int
	fromSet, toSet bool
	common         bool
	out            string
	noMap          bool
}

// years fills the missing bound from the configured default range.
func (o *graphOptions) years(cfg config.DashboardConfig) *trade.YearRange {
	if !o.fromSet && !o.toSet {
		return nil
	}
	y := trade.YearRange{From: cfg.DefaultFrom, To: cfg.DefaultTo}
	if o.fromSet {
		y.From = o.from
	}
	if o.toSet {
		y.To = o.to
	}
	return &y
}

func newGraphCmd(root *rootOptions) *cobra.Command {
	opts := &graphOptions{}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the trade network of one selection as a standalone HTML page",
		Example: `  citesnet graph --taxon "Python regius" --from 2000 --to 2020 --centrality betweenness --out python.html
  citesnet graph --taxon "ball python" --common --exporter Ghana --out ghana.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.req.Scientific = !opts.common
			opts.fromSet = cmd.Flags().Changed("from")
			opts.toSet = cmd.Flags().Changed("to")
			return runGraph(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.req.Taxon, "taxon", "", "taxon name (required)")
	f.BoolVar(&opts.common, "common", false, "treat --taxon as a common (vernacular) name")
	f.IntVar(&opts.from, "from", 0, "first trade year")
	f.IntVar(&opts.to, "to", 0, "last trade year")
	f.StringVar(&opts.req.Term, "term", "", "trade term or ALL")
	f.StringVar(&opts.req.Purpose, "purpose", "", "purpose code, description or ALL")
	f.StringVar(&opts.req.Source, "source", "", "source code, description or ALL")
	f.StringVar(&opts.req.Exporter, "exporter", "", "highlighted exporter, name or ISO code")
	f.StringVar(&opts.req.Importer, "importer", "", "highlighted importer, name or ISO code")
	f.BoolVar(&opts.req.Weighted, "weighted", false, "scale edges by traded quantity")
	f.StringVar(&opts.req.Centrality, "centrality", "", "node sizing: degree, indegree, outdegree, betweenness, closeness or eigenvector")
	f.StringVarP(&opts.out, "out", "o", "network.html", "output file")
	f.BoolVar(&opts.noMap, "no-map", false, "omit the geographic map")
	_ = cmd.MarkFlagRequired("taxon")
	return cmd
}

func runGraph(ctx context.Context, out io.Writer, root *rootOptions, opts *graphOptions) error {
	cfg, _, err := root.load()
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
	}
	defer func() { _ = st.Close() }()

	opts.req.Years = opts.years(cfg.Dashboard)
	dash := dashboard.New(st, cache.NewNoOpCache(), cfg.Dashboard, 0)
	res, err := dash.Query(ctx, opts.req)
	if err != nil {
		return err
	}
	if !res.Plotted() {
		return errors.New(res.Message)
	}

	site := about.FromConfig(cfg)
	data := render.GraphData{
		Title: fmt.Sprintf("%s trade network (%s)", res.Filter.Taxon, res.Centrality.Label()),
		Site:  site,
		Vis:   *res.Vis,
	}
	if !opts.noMap {
		data.Map = res.Map
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := renderer.Graph(&buf, data); err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	if err := render.WriteFile(opts.out, buf.Bytes()); err != nil {
		return err
	}

	logger := xglog.WithComponent("graph")
	logger.Info().
		Str(xglog.FieldEvent, "graph.written").
		Str(xglog.FieldTaxon, res.Filter.Taxon).
		Int(xglog.FieldNodes, len(res.Nodes)).
		Int(xglog.FieldEdges, len(res.Links)).
		Str("path", opts.out).
		Msg("network exported")
	if res.Message != "" {
		_, _ = fmt.Fprintln(out, res.Message)
	}
	_, _ = fmt.Fprintf(out, "wrote %s (%d countries, %d trade links)\n", opts.out, len(res.Nodes), len(res.Links))
	return nil
}
