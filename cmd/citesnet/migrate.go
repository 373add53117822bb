// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/citesnet/internal/persistence/sqlite"
	"github.com/ManuGH/citesnet/internal/store"
)

// errCorrupt is returned by `migrate verify` when the integrity check fails.
var errCorrupt = errors.New("database integrity check failed")

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the trade store schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), root, (*store.Migrator).Up)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert every migration, dropping all data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to drop the trade store without --yes")
			}
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), root, (*store.Migrator).Down)
		},
	}
	down.Flags().Bool("yes", false, "confirm dropping every table")

	var mode string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check the database file for corruption",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd.Context(), cmd.OutOrStdout(), root, mode)
		},
	}
	verify.Flags().StringVar(&mode, "mode", "quick", "verification mode: quick or full")

	cmd.AddCommand(up, down, verify)
	return cmd
}

func runMigrate(ctx context.Context, out io.Writer, root *rootOptions, step func(*store.Migrator, context.Context) error) error {
	cfg, _, err := root.load()
	if err != nil {
		return err
	}
	m := store.NewMigrator(cfg.Database.Path, store.SQLiteConfig(cfg.Database))
	if err := step(m, ctx); err != nil {
		return err
	}
	v, dirty, err := m.Version(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s: schema version %d (dirty: %t)\n", cfg.Database.Path, v, dirty)
	return nil
}

func runVerify(ctx context.Context, out io.Writer, root *rootOptions, mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "quick" && mode != "full" {
		return fmt.Errorf("invalid mode %q, use quick or full", mode)
	}
	cfg, _, err := root.load()
	if err != nil {
		return err
	}

	issues, err := sqlite.VerifyIntegrity(ctx, cfg.Database.Path, mode)
	if err != nil {
		return fmt.Errorf("verify %s: %w", cfg.Database.Path, err)
	}
	if issues != nil {
		for _, issue := range issues {
			_, _ = fmt.Fprintf(out, "  - %s\n", issue)
		}
		return fmt.Errorf("%w: %s", errCorrupt, cfg.Database.Path)
	}
	_, _ = fmt.Fprintf(out, "%s: integrity ok (%s)\n", cfg.Database.Path, mode)
	return nil
}
