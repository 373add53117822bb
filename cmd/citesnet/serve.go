// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ManuGH/citesnet/internal/api"
	"github.com/ManuGH/citesnet/internal/cache"
	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/daemon"
	"github.com/ManuGH/citesnet/internal/dashboard"
	"github.com/ManuGH/citesnet/internal/health"
	xglog "github.com/ManuGH/citesnet/internal/log"
	"github.com/ManuGH/citesnet/internal/metrics"
	"github.com/ManuGH/citesnet/internal/store"
)

type serveOptions struct {
	listen       string
	maxIngestAge time.Duration
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address, overrides server.listenAddr")
	cmd.Flags().DurationVar(&opts.maxIngestAge, "max-ingest-age", 0, "report degraded readiness when the last ingest is older (0 disables)")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	cfg, path, err := root.load()
	if err != nil {
		return err
	}
	if l := strings.TrimSpace(opts.listen); l != "" {
		cfg.Server.ListenAddr = l
	}
	logger := xglog.WithComponent("daemon")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "startup.check_failed").Msg("startup checks failed")
		return err
	}

	tp, err := daemon.InitTelemetry(ctx, cfg)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return fmt.Errorf("open store: %w", err)
	}

	c, err := cache.New(cfg.Cache, xglog.WithComponent("cache"))
	if err != nil {
		_ = st.Close()
		_ = tp.Shutdown(context.Background())
		return fmt.Errorf("open cache: %w", err)
	}

	dash := dashboard.New(st, c, cfg.Dashboard, cfg.Cache.TTL)
	hm := newHealthManager(cfg, st, opts.maxIngestAge)

	apiOpts := []api.ServerOption{api.WithHealthManager(hm)}
	if cfg.Telemetry.Enabled {
		apiOpts = append(apiOpts, api.WithTracing(cfg.LogService))
	}
	srv, err := api.New(cfg, dash, apiOpts...)
	if err != nil {
		_ = c.Close()
		_ = st.Close()
		_ = tp.Shutdown(context.Background())
		return err
	}

	serverCfg := config.ParseServerConfigForApp(cfg)
	deps := daemon.Deps{
		Logger:      logger,
		APIHandler:  srv.Handler(),
		MetricsAddr: strings.TrimSpace(cfg.MetricsAddr),
	}
	if deps.MetricsAddr != "" {
		deps.MetricsHandler = promhttp.Handler()
	}

	mgr, err := daemon.NewManager(serverCfg, deps)
	if err != nil {
		_ = c.Close()
		_ = st.Close()
		_ = tp.Shutdown(context.Background())
		return fmt.Errorf("create daemon manager: %w", err)
	}
	// Hooks run in reverse: the store closes last.
	mgr.RegisterShutdownHook("store", func(context.Context) error { return st.Close() })
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return c.Close() })
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("addr", serverCfg.ListenAddr).
		Str("database", cfg.Database.Path).
		Str("cache", c.Stats().Backend).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("starting citesnet")

	holder := config.NewConfigHolder(cfg, config.NewLoader(path, cfg.Version), path)
	app := daemon.NewApp(logger, mgr, holder, func(next config.AppConfig) {
		dash.SetConfig(ctx, next.Dashboard)
		metrics.RecordConfigReload(nil)
	})
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		return err
	}
	logger.Info().Str(xglog.FieldEvent, "shutdown").Msg("server exiting")
	return nil
}

// newHealthManager registers the readiness checks of a serving process.
func newHealthManager(cfg config.AppConfig, st *store.Store, maxIngestAge time.Duration) *health.Manager {
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewFileChecker("database", st.Path()))
	hm.RegisterChecker(health.NewPingChecker("store", st.Ping))
	hm.RegisterChecker(health.NewDatasetChecker(func(ctx context.Context) (int64, error) {
		sum, err := st.Summary(ctx)
		return sum.Records, err
	}))
	hm.RegisterChecker(health.NewLastIngestChecker(func(ctx context.Context) (time.Time, error) {
		run, err := st.LastIngestRun(ctx)
		return run.FinishedAt, err
	}, maxIngestAge))
	return hm
}
