// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/config"
)

func TestPerformStartupChecks(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.Server.ListenAddr = ":8088"
	cfg.MetricsAddr = "127.0.0.1:9090"
	cfg.Ingest.CountriesCSV = filepath.Join(dir, "missing.csv")

	require.NoError(t, PerformStartupChecks(context.Background(), cfg), "missing CSV inputs only warn")
	assert.DirExists(t, cfg.DataDir)
	assert.NoFileExists(t, filepath.Join(cfg.DataDir, ".write_test"))
}

func TestPerformStartupChecks_Failures(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name   string
		mutate func(*config.AppConfig)
	}{
		{"data dir is a file", func(c *config.AppConfig) { c.DataDir = file }},
		{"listen addr without port", func(c *config.AppConfig) { c.Server.ListenAddr = "localhost" }},
		{"metrics port out of range", func(c *config.AppConfig) { c.MetricsAddr = ":70000" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.DataDir = dir
			tt.mutate(&cfg)
			require.Error(t, PerformStartupChecks(context.Background(), cfg))
		})
	}
}
