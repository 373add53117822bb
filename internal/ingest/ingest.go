// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ingest loads the CITES trade CSV export and the country and
// vernacular reference tables into the store.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/citesnet/internal/config"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
	"github.com/ManuGH/citesnet/internal/store"
	"github.com/ManuGH/citesnet/internal/telemetry"
	"github.com/ManuGH/citesnet/internal/trade"
)

const tracerName = "citesnet/ingest"

// Writer is the subset of the store the loader writes through.
type Writer interface {
	ReplaceShipments(ctx context.Context, records <-chan trade.Record, batchSize int) (int64, error)
	ReplaceCountries(ctx context.Context, countries []trade.Country) (int, error)
	ReplaceVernaculars(ctx context.Context, names []trade.Vernacular) (int, error)
	RecordIngestRun(ctx context.Context, run store.IngestRun) error
}

// Report summarizes one ingest run.
type Report struct {
	Files       []string      `json:"files"`
	Rows        int64         `json:"rows"`
	Skipped     int64         `json:"skipped"`
	Countries   int           `json:"countries"`
	Vernaculars int           `json:"vernaculars"`
	Duration    time.Duration `json:"duration"`
}

// Loader parses input files concurrently and hands them to a single writer.
type Loader struct {
	w      Writer
	cfg    config.IngestConfig
	logger zerolog.Logger
	now    func() time.Time
}

// New returns a loader for the paths in cfg. Paths are used as given; the
// config loader has already anchored them in the data directory.
func New(w Writer, cfg config.IngestConfig) *Loader {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 5000
	}
	return &Loader{
		w:      w,
		cfg:    cfg,
		logger: xglog.WithComponent("ingest"),
		now:    time.Now,
	}
}

// Run replaces the dataset with the contents of the configured files.
// Shipments are swapped atomically; if any trade file fails the previous
// shipments stay in place. Reference tables are replaced afterwards.
func (l *Loader) Run(ctx context.Context) (Report, error) {
	start := l.now()
	var rep Report

	files, err := filepath.Glob(l.cfg.TradeGlob)
	if err != nil {
		return rep, fmt.Errorf("trade glob %q: %w", l.cfg.TradeGlob, err)
	}
	if len(files) == 0 {
		return rep, fmt.Errorf("%w: %s", ErrNoInputFiles, l.cfg.TradeGlob)
	}
	sort.Strings(files)
	rep.Files = files

	l.logger.Info().
		Str(xglog.FieldEvent, "ingest.start").
		Int("files", len(files)).
		Int("workers", l.cfg.Workers).
		Msg("loading trade files")

	rows, skipped, err := l.loadShipments(ctx, files)
	rep.Rows, rep.Skipped = rows, skipped
	if err != nil {
		return rep, err
	}

	if l.cfg.CountriesCSV != "" {
		countries, skip, err := readCountries(ctx, l.cfg.CountriesCSV)
		if err != nil {
			return rep, fmt.Errorf("countries: %w", err)
		}
		rep.Skipped += int64(skip)
		if rep.Countries, err = l.w.ReplaceCountries(ctx, countries); err != nil {
			return rep, fmt.Errorf("countries: %w", err)
		}
	}

	if l.cfg.VernacularCSV != "" {
		names, skip, err := readVernaculars(ctx, l.cfg.VernacularCSV)
		if err != nil {
			return rep, fmt.Errorf("vernaculars: %w", err)
		}
		rep.Skipped += int64(skip)
		if rep.Vernaculars, err = l.w.ReplaceVernaculars(ctx, names); err != nil {
			return rep, fmt.Errorf("vernaculars: %w", err)
		}
	}

	finished := l.now()
	rep.Duration = finished.Sub(start)
	metrics.ObserveIngestDuration(rep.Duration.Seconds())
	metrics.RecordIngestSkipped(int(rep.Skipped))

	if err := l.w.RecordIngestRun(ctx, store.IngestRun{
		StartedAt:   start,
		FinishedAt:  finished,
		Files:       len(files),
		Rows:        rep.Rows,
		Skipped:     rep.Skipped,
		Countries:   rep.Countries,
		Vernaculars: rep.Vernaculars,
	}); err != nil {
		return rep, fmt.Errorf("record ingest run: %w", err)
	}

	l.logger.Info().
		Str(xglog.FieldEvent, "ingest.done").
		Int64(xglog.FieldRows, rep.Rows).
		Int64(xglog.FieldSkipped, rep.Skipped).
		Int("countries", rep.Countries).
		Int("vernaculars", rep.Vernaculars).
		Dur("duration", rep.Duration).
		Msg("ingest complete")
	return rep, nil
}

// loadShipments fans the trade files out to parser workers feeding one
// transactional writer. The channel is only closed when every parser
// succeeded; on failure the shared context is cancelled instead, so the
// writer rolls back rather than committing a partial dataset.
func (l *Loader) loadShipments(ctx context.Context, files []string) (int64, int64, error) {
	records := make(chan trade.Record, l.cfg.BatchSize)
	g, gctx := errgroup.WithContext(ctx)

	var written int64
	g.Go(func() error {
		n, err := l.w.ReplaceShipments(gctx, records, l.cfg.BatchSize)
		written = n
		return err
	})

	var (
		mu      sync.Mutex
		skipped int64
	)
	g.Go(func() error {
		pg, pctx := errgroup.WithContext(gctx)
		pg.SetLimit(l.cfg.Workers)
		for _, file := range files {
			pg.Go(func() error {
				ctx, span := telemetry.StartSpan(pctx, tracerName, "ingest.file")
				rows, skip, err := readTradeFile(ctx, file, records)
				span.SetAttributes(telemetry.IngestAttributes(filepath.Base(file), store.TableShipments, rows, skip)...)
				telemetry.EndSpan(span, err)
				if err != nil {
					return fmt.Errorf("trade file %s: %w", filepath.Base(file), err)
				}

				mu.Lock()
				skipped += int64(skip)
				mu.Unlock()
				l.logger.Debug().
					Str(xglog.FieldEvent, "ingest.file_parsed").
					Str(xglog.FieldFile, file).
					Int(xglog.FieldRows, rows).
					Int(xglog.FieldSkipped, skip).
					Msg("trade file parsed")
				return nil
			})
		}
		if err := pg.Wait(); err != nil {
			return err
		}
		close(records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return written, skipped, err
	}
	return written, skipped, nil
}
