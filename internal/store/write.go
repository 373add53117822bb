// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
	"github.com/ManuGH/citesnet/internal/telemetry"
	"github.com/ManuGH/citesnet/internal/trade"
)

// Table names reported in metrics and logs.
const (
	TableShipments   = "shipments"
	TableCountries   = "countries"
	TableVernaculars = "vernaculars"
)

const defaultBatchSize = 5000

const insertShipment = `
INSERT INTO shipments (
	source_id, year, appendix, taxon, class, order_name, family, genus, term,
	quantity, unit, importer, exporter, origin, purpose, source, reporter_type
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// IngestRun records one completed load of the dataset.
type IngestRun struct {
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Files       int       `json:"files"`
	Rows        int64     `json:"rows"`
	Skipped     int64     `json:"skipped"`
	Countries   int       `json:"countries"`
	Vernaculars int       `json:"vernaculars"`
}

// ReplaceShipments swaps the shipments table for the records read from the
// channel. The swap happens in one transaction: readers keep seeing the old
// data until the channel is closed and the commit succeeds.
//
// On error the caller must cancel ctx so producers blocked on the channel exit.
func (s *Store) ReplaceShipments(ctx context.Context, records <-chan trade.Record, batchSize int) (n int64, err error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	ctx, done := s.observe(ctx, "replace_shipments", attribute.String(telemetry.IngestTableKey, TableShipments))
	defer func() { done(err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM shipments`); err != nil {
		return 0, fmt.Errorf("clear shipments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertShipment)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	batch := 0
	for {
		var (
			r  trade.Record
			ok bool
		)
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case r, ok = <-records:
		}
		if !ok {
			break
		}
		if _, err = stmt.ExecContext(ctx,
			nullString(r.ID), r.Year, nullString(r.Appendix), r.Taxon,
			nullString(r.Class), nullString(r.Order), nullString(r.Family), nullString(r.Genus),
			nullString(r.Term), r.Quantity, nullString(r.Unit),
			nullString(r.Importer), nullString(r.Exporter), nullString(r.Origin),
			nullString(r.Purpose), nullString(r.Source), nullString(r.ReporterType),
		); err != nil {
			return n, fmt.Errorf("insert shipment %q: %w", r.ID, err)
		}
		n++
		batch++
		if batch == batchSize {
			metrics.RecordIngestRows(TableShipments, batch)
			s.logger.Debug().
				Str(xglog.FieldEvent, "store.batch_written").
				Int64(xglog.FieldRows, n).
				Msg("shipment batch written")
			batch = 0
		}
	}

	if err = tx.Commit(); err != nil {
		return n, fmt.Errorf("commit shipments: %w", err)
	}
	metrics.RecordIngestRows(TableShipments, batch)
	metrics.SetDatasetRecords(n)
	return n, nil
}

// ReplaceCountries swaps the countries table. Rows without a code are dropped.
func (s *Store) ReplaceCountries(ctx context.Context, countries []trade.Country) (n int, err error) {
	ctx, done := s.observe(ctx, "replace_countries", attribute.String(telemetry.IngestTableKey, TableCountries))
	defer func() { done(err) }()

	err = s.replace(ctx, TableCountries,
		`INSERT OR REPLACE INTO countries (code, name, latitude, longitude) VALUES (?, ?, ?, ?)`,
		len(countries),
		func(stmt *sql.Stmt, i int) (bool, error) {
			c := countries[i]
			if c.Code == "" {
				return false, nil
			}
			_, err := stmt.ExecContext(ctx, c.Code, c.Name, c.Latitude, c.Longitude)
			return true, err
		}, &n)
	return n, err
}

// ReplaceVernaculars swaps the vernacular name table. Repeated pairs collapse
// into one row; distinct common names of the same taxon are all kept.
func (s *Store) ReplaceVernaculars(ctx context.Context, names []trade.Vernacular) (n int, err error) {
	ctx, done := s.observe(ctx, "replace_vernaculars", attribute.String(telemetry.IngestTableKey, TableVernaculars))
	defer func() { done(err) }()

	err = s.replace(ctx, TableVernaculars,
		`INSERT OR IGNORE INTO vernaculars (complete_name, vernacular_name) VALUES (?, ?)`,
		len(names),
		func(stmt *sql.Stmt, i int) (bool, error) {
			v := names[i]
			if v.CompleteName == "" || v.VernacularName == "" {
				return false, nil
			}
			res, err := stmt.ExecContext(ctx, v.CompleteName, v.VernacularName)
			if err != nil {
				return false, err
			}
			affected, err := res.RowsAffected()
			return affected > 0, err
		}, &n)
	return n, err
}

func (s *Store) replace(ctx context.Context, table, insert string, count int, exec func(*sql.Stmt, int) (bool, error), inserted *int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Table names come from the constants above, never from input.
	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < count; i++ {
		ok, execErr := exec(stmt, i)
		if execErr != nil {
			err = fmt.Errorf("insert %s row %d: %w", table, i, execErr)
			return err
		}
		if ok {
			*inserted++
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	metrics.RecordIngestRows(table, *inserted)
	return nil
}

// RecordIngestRun appends a completed ingest to the run history.
func (s *Store) RecordIngestRun(ctx context.Context, run IngestRun) (err error) {
	ctx, done := s.observe(ctx, "record_ingest_run")
	defer func() { done(err) }()

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO ingest_runs (started_at, finished_at, files, rows_loaded, rows_skipped, countries, vernaculars)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Files, run.Rows, run.Skipped, run.Countries, run.Vernaculars,
	)
	return err
}

// LastIngestRun returns the most recent ingest, or ErrNotFound.
func (s *Store) LastIngestRun(ctx context.Context) (run IngestRun, err error) {
	ctx, done := s.observe(ctx, "last_ingest_run")
	defer func() {
		if errors.Is(err, ErrNotFound) {
			done(nil)
			return
		}
		done(err)
	}()

	var started, finished string
	err = s.db.QueryRowContext(ctx, `
	SELECT started_at, finished_at, files, rows_loaded, rows_skipped, countries, vernaculars
	FROM ingest_runs
	ORDER BY id DESC
	LIMIT 1
	`).Scan(&started, &finished, &run.Files, &run.Rows, &run.Skipped, &run.Countries, &run.Vernaculars)
	if errors.Is(err, sql.ErrNoRows) {
		return IngestRun{}, ErrNotFound
	}
	if err != nil {
		return IngestRun{}, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return IngestRun{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return IngestRun{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}
