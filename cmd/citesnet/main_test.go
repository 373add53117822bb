// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/version"
)

const tradeCSV = `Id,Year,Appendix,Taxon,Class,Order,Family,Genus,Term,Quantity,Unit,Importer,Exporter,Origin,Purpose,Source,Reporter.type
1,2001,II,Python regius,Reptilia,Serpentes,Pythonidae,Python,live,10,,US,GH,,T,W,E
2,2002,II,Python regius,Reptilia,Serpentes,Pythonidae,Python,live,4,,DE,GH,,T,C,E
3,2003,II,Python regius,Reptilia,Serpentes,Pythonidae,Python,skins,3,,DE,US,,T,W,I
4,2003,II,Testudo graeca,Reptilia,Testudines,Testudinidae,Testudo,live,1,,US,MA,,P,W,I
`

const countriesCSV = `country,latitude,longitude,name
DE,51.165691,10.451526,Germany
GH,7.946527,-1.023194,Ghana
MA,31.791702,-7.09262,Morocco
US,37.09024,-95.712891,United States
`

const vernacularCSV = `complete_name,vernacular_name
Python regius,ball python
Testudo graeca,Greek tortoise
`

// dataDir lays out a data directory in the default locations and points
// CITESNET_DATA at it.
func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"trade/trade_db_1.csv": tradeCSV,
		"countries.csv":        countriesCSV,
		"itis_vernacular.csv":  vernacularCSV,
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	t.Setenv(config.EnvPrefix+"DATA", dir)
	t.Setenv(config.EnvPrefix+"LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIngestStatsGraph(t *testing.T) {
	dir := dataDir(t)

	out, err := run(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 4 shipments from 1 files")
	assert.Contains(t, out, "4 countries")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Regexp(t, `Records\s*\|\s*4`, out)
	assert.Regexp(t, `Taxa\s*\|\s*2`, out)
	assert.Regexp(t, `Exporters\s*\|\s*3`, out)
	assert.NotContains(t, out, "never")

	target := filepath.Join(dir, "python.html")
	out, err = run(t, "graph", "--taxon", "ball python", "--common", "--from", "2000",
		"--centrality", "In-Degree", "--exporter", "Ghana", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+target+" (3 countries, 3 trade links)")

	page, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(page), "vis.Network")
	assert.Contains(t, string(page), "Plotly.newPlot")
	assert.Contains(t, string(page), "Python regius trade network (In-Degree)")
}

func TestGraph_NoResults(t *testing.T) {
	dir := dataDir(t)
	_, err := run(t, "ingest")
	require.NoError(t, err)

	_, err = run(t, "graph", "--taxon", "Python regius", "--from", "2010", "--to", "2020",
		"--out", filepath.Join(dir, "empty.html"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "empty.html"))

	_, err = run(t, "graph", "--taxon", "Raphus cucullatus", "--out", filepath.Join(dir, "dodo.html"))
	require.Error(t, err)
}

func TestStats_EmptyStore(t *testing.T) {
	dataDir(t)
	_, err := run(t, "migrate", "up")
	require.NoError(t, err)

	out, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "never")
}

func TestStats_MissingDatabase(t *testing.T) {
	dataDir(t)
	_, err := run(t, "stats")
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	dataDir(t)

	out, err := run(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 2 (dirty: false)")

	out, err = run(t, "migrate", "verify", "--mode", "full")
	require.NoError(t, err)
	assert.Contains(t, out, "integrity ok (full)")

	_, err = run(t, "migrate", "verify", "--mode", "thorough")
	require.Error(t, err)

	_, err = run(t, "migrate", "down")
	require.Error(t, err, "down requires --yes")

	out, err = run(t, "migrate", "down", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")
}

func TestConfigFile(t *testing.T) {
	dir := dataDir(t)
	cfgPath := filepath.Join(dir, "citesnet.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: other.db\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "migrate", "up")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "other.db"))

	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  pth: typo.db\n"), 0o600))
	_, err = run(t, "--config", cfgPath, "migrate", "up")
	require.Error(t, err, "unknown keys are rejected")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "citesnet "+version.String()+"\n", out)
}
