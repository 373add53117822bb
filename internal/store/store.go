// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists the CITES trade tables in SQLite and answers the
// filter queries behind the dashboard.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/citesnet/internal/config"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
	"github.com/ManuGH/citesnet/internal/persistence/sqlite"
	"github.com/ManuGH/citesnet/internal/telemetry"
)

const tracerName = "citesnet/store"

// Store provides SQLite persistence for trade shipments and reference tables.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
	closed atomic.Bool
}

// SQLiteConfig maps the database section of the app config onto pool settings.
func SQLiteConfig(cfg config.DatabaseConfig) sqlite.Config {
	out := sqlite.DefaultConfig()
	if cfg.BusyTimeout > 0 {
		out.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.MaxOpenConns > 0 {
		out.MaxOpenConns = cfg.MaxOpenConns
	}
	return out
}

// Open migrates the database at path to the latest schema and opens a pool on it.
// A read-only config skips migrations.
func Open(ctx context.Context, path string, cfg sqlite.Config) (*Store, error) {
	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		if err := NewMigrator(path, cfg).Up(ctx); err != nil {
			return nil, err
		}
	}

	db, err := sqlite.Open(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		path:   path,
		logger: xglog.WithComponent("store"),
	}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the connection pool. Further calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) (err error) {
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, done := s.observe(ctx, "ping")
	defer func() { done(err) }()
	return s.db.PingContext(ctx)
}

// observe opens a span for a store operation and returns the callback that
// closes it and records the query metrics.
func (s *Store) observe(ctx context.Context, kind string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "store."+kind, attrs...)
	start := time.Now()
	return ctx, func(err error) {
		metrics.ObserveQuery(kind, time.Since(start).Seconds(), err)
		telemetry.EndSpan(span, err)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "store.query_failed").
				Str("kind", kind).
				Msg("store operation failed")
		}
	}
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
