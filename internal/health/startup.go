// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/log"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkListenAddrs(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	checkIngestInputs(logger, cfg.Ingest)

	logger.Info().Msg("all startup checks passed")
	return ctx.Err()
}

func checkDataDir(logger zerolog.Logger, path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str(log.FieldPath, path).Msg("data directory is writable")
	return nil
}

func checkListenAddrs(logger zerolog.Logger, cfg config.AppConfig) error {
	for name, addr := range map[string]string{"api": cfg.Server.ListenAddr, "metrics": cfg.MetricsAddr} {
		if addr == "" {
			continue
		}
		_, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid %s listen address %q: %w", name, addr, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid %s listen port %q in %q", name, port, addr)
		}
		logger.Info().Str("addr", addr).Str("listener", name).Msg("listen address is valid")
	}
	return nil
}

// checkIngestInputs only warns: the server runs from the database, the CSV
// inputs matter for `citesnet ingest`.
func checkIngestInputs(logger zerolog.Logger, cfg config.IngestConfig) {
	if cfg.TradeGlob != "" {
		matches, err := filepath.Glob(cfg.TradeGlob)
		if err != nil || len(matches) == 0 {
			logger.Warn().Str("glob", cfg.TradeGlob).Msg("no trade CSV files match the configured glob")
		}
	}
	for name, path := range map[string]string{"countries": cfg.CountriesCSV, "vernacular": cfg.VernacularCSV} {
		if path == "" {
			continue
		}
		if err := checkFileReadable(path); err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, path).Str("input", name).Msg("reference CSV is not readable")
		}
	}
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return err
	}
	return f.Close()
}
