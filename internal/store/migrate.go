// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/persistence/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations.
//
// The golang-migrate SQLite driver closes the *sql.DB it was handed, so every
// run opens a dedicated single connection instead of borrowing the store pool.
type Migrator struct {
	path   string
	cfg    sqlite.Config
	logger zerolog.Logger
}

// NewMigrator returns a migrator for the database at path.
func NewMigrator(path string, cfg sqlite.Config) *Migrator {
	cfg.MaxOpenConns = 1
	cfg.ReadOnly = false
	return &Migrator{
		path:   path,
		cfg:    cfg,
		logger: xglog.WithComponent("migrate"),
	}
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down reverts every applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func(mg *migrate.Migrate) error { return mg.Down() })
}

// Version reports the applied schema version. A fresh database reports 0.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	err = m.with(ctx, func(mg *migrate.Migrate) error {
		version, dirty, err = mg.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty, err = 0, false, nil
		}
		return err
	})
	return version, dirty, err
}

func (m *Migrator) run(ctx context.Context, direction string, fn func(*migrate.Migrate) error) error {
	err := m.with(ctx, func(mg *migrate.Migrate) error {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				mg.GracefulStop <- true
			case <-done:
			}
		}()

		if err := fn(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	v, dirty, verr := m.Version(ctx)
	if verr == nil {
		m.logger.Info().
			Str("event", "migrate."+direction).
			Str(xglog.FieldPath, m.path).
			Uint("version", v).
			Bool("dirty", dirty).
			Msg("schema migrated")
	}
	return nil
}

func (m *Migrator) with(ctx context.Context, fn func(*migrate.Migrate) error) error {
	db, err := sqlite.Open(ctx, m.path, m.cfg)
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migration source: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("migration instance: %w", err)
	}
	defer func() { _, _ = mg.Close() }()

	return fn(mg)
}
