// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command citesnet loads the CITES trade database and serves the trade
// network dashboard.
package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/daemon"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/store"
	"github.com/ManuGH/citesnet/internal/version"
)

func main() {
	ctx, stop := daemon.WaitForShutdown(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logOutput  io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "citesnet",
		Short:        "CITES trade network dashboard",
		Long:         "citesnet ingests the CITES trade database into SQLite and serves an interactive trade network dashboard.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logOutput = cmd.ErrOrStderr()
			// Safe defaults until the config is loaded.
			xglog.Configure(xglog.Config{
				Level:   "info",
				Service: "citesnet",
				Version: version.Version,
				Output:  opts.logOutput,
			})
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML)")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newStatsCmd(opts),
		newGraphCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// resolveConfigPath returns the explicit --config path, or
// ${CITESNET_DATA}/config.yaml when that file exists, or "".
func (o *rootOptions) resolveConfigPath() string {
	if p := strings.TrimSpace(o.configPath); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(config.ParseString(config.EnvPrefix+"DATA", ""))
	if dataDir == "" {
		return ""
	}
	auto := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(auto); err == nil {
		return auto
	}
	return ""
}

// load resolves the configuration (ENV > file > defaults) and reconfigures
// the logger from it.
func (o *rootOptions) load() (config.AppConfig, string, error) {
	path := o.resolveConfigPath()
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger := xglog.WithComponent("cli")
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
		return cfg, path, err
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
		Output:  o.logOutput,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger := xglog.WithComponent("cli")
	logger.Debug().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")
	return cfg, path, nil
}

// openStore opens (and migrates) the trade store named by cfg.
func openStore(ctx context.Context, cfg config.AppConfig) (*store.Store, error) {
	return store.Open(ctx, cfg.Database.Path, store.SQLiteConfig(cfg.Database))
}

// openStoreReadOnly opens an existing trade store without migrating it.
func openStoreReadOnly(ctx context.Context, cfg config.AppConfig) (*store.Store, error) {
	sc := store.SQLiteConfig(cfg.Database)
	sc.ReadOnly = true
	if _, err := os.Stat(cfg.Database.Path); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Database.Path, sc)
}
