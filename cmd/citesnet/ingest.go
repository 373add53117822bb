// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ManuGH/citesnet/internal/cache"
	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/ingest"
	xglog "github.com/ManuGH/citesnet/internal/log"
)

type ingestOptions struct {
	tradeGlob  string
	countries  string
	vernacular string
	workers    int
	keepCache  bool
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the trade CSV exports and reference tables into the store",
		Long: `Replaces the shipments table with the rows of every file matching the
trade glob, then replaces the country and vernacular name tables.
Shipments are swapped in one transaction; a failed run leaves the previous
data in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.tradeGlob, "trade", "", "glob of trade CSV files, overrides ingest.tradeGlob")
	f.StringVar(&opts.countries, "countries", "", "country centroid CSV, overrides ingest.countriesCSV")
	f.StringVar(&opts.vernacular, "vernacular", "", "vernacular name CSV, overrides ingest.vernacularCSV")
	f.IntVar(&opts.workers, "workers", 0, "parser workers, overrides ingest.workers")
	f.BoolVar(&opts.keepCache, "keep-cache", false, "do not clear the shared query cache after loading")
	return cmd
}

func (o *ingestOptions) apply(cfg *config.IngestConfig) {
	if o.tradeGlob != "" {
		cfg.TradeGlob = o.tradeGlob
	}
	if o.countries != "" {
		cfg.CountriesCSV = o.countries
	}
	if o.vernacular != "" {
		cfg.VernacularCSV = o.vernacular
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
}

func runIngest(ctx context.Context, out io.Writer, root *rootOptions, opts *ingestOptions) error {
	cfg, _, err := root.load()
	if err != nil {
		return err
	}
	opts.apply(&cfg.Ingest)
	logger := xglog.WithComponent("ingest")

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	rep, err := ingest.New(st, cfg.Ingest).Run(ctx)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "ingest.failed").Msg("ingest failed")
		return err
	}

	if !opts.keepCache {
		clearSharedCache(ctx, cfg.Cache)
	}

	_, _ = fmt.Fprintf(out, "loaded %s shipments from %d files (%s rows skipped), %d countries, %d vernacular names in %s\n",
		humanize.Comma(rep.Rows), len(rep.Files), humanize.Comma(rep.Skipped),
		rep.Countries, rep.Vernaculars, rep.Duration.Round(time.Millisecond))
	return nil
}

// clearSharedCache drops answers computed from the previous dataset. Only
// the redis and badger backends outlive a process; a badger cache held open
// by a running server cannot be opened here and is left to expire.
func clearSharedCache(ctx context.Context, cc config.CacheConfig) {
	if cc.Backend != config.CacheBackendRedis && cc.Backend != config.CacheBackendBadger {
		return
	}
	logger := xglog.WithComponent("cache")
	c, err := cache.New(cc, logger)
	if err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "cache.clear_skipped").Msg("cache not cleared after ingest")
		return
	}
	defer func() { _ = c.Close() }()
	c.Clear(ctx)
	logger.Info().Str(xglog.FieldEvent, "cache.cleared").Str("backend", cc.Backend).Msg("cache cleared after ingest")
}
