// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/about"
	"github.com/ManuGH/citesnet/internal/cache"
	"github.com/ManuGH/citesnet/internal/config"
	"github.com/ManuGH/citesnet/internal/network"
	"github.com/ManuGH/citesnet/internal/trade"
)

type fakeStore struct {
	edges      map[string][]trade.Edge
	records    []trade.Record
	vernacular []trade.Vernacular
	taxa       []string
	edgeCalls  atomic.Int64
	lastFilter trade.Filter
	fail       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		edges: map[string][]trade.Edge{
			"Python regius": {
				{Exporter: "GH", Importer: "US", Weight: 14},
				{Exporter: "GH", Importer: "DE", Weight: 5},
				{Exporter: "US", Importer: "DE", Weight: 3},
				{Exporter: "DE", Importer: "CN", Weight: 2},
			},
			"Testudo graeca": {
				{Exporter: "TG", Importer: "DE", Weight: 50},
			},
		},
		records: []trade.Record{
			{ID: "1", Year: 2001, Taxon: "Python regius", Exporter: "GH", Importer: "US", Quantity: 10},
			{ID: "2", Year: 2002, Taxon: "Python regius", Exporter: "GH", Importer: "DE", Quantity: 5},
			{ID: "3", Year: 2003, Taxon: "Python regius", Exporter: "US", Importer: "DE", Quantity: 3},
		},
		vernacular: []trade.Vernacular{
			{CompleteName: "Python regius", VernacularName: "ball python"},
			{CompleteName: "Python regius", VernacularName: "royal python"},
			{CompleteName: "Testudo graeca", VernacularName: "Greek tortoise"},
		},
		taxa: []string{"Testudo graeca", "Python regius", "Boa constrictor"},
	}
}

func (f *fakeStore) Summary(context.Context) (trade.Summary, error) {
	return trade.Summary{Records: 1234567, Taxa: 3, Exporters: 4, Importers: 1200}, f.fail
}

func (f *fakeStore) UniqueTaxa(context.Context) ([]string, error) { return f.taxa, f.fail }

func (f *fakeStore) TaxonVernaculars(context.Context) ([]trade.Vernacular, error) {
	return f.vernacular, f.fail
}

func (f *fakeStore) TermsForTaxon(_ context.Context, taxon string, _ *trade.YearRange) ([]string, error) {
	if taxon != "Python regius" {
		return nil, f.fail
	}
	return []string{"skins", "live", "bodies"}, f.fail
}

func (f *fakeStore) PurposesForTaxon(context.Context, string, *trade.YearRange, string) ([]string, error) {
	return []string{"T", "Z", "?"}, f.fail
}

func (f *fakeStore) SourcesForTaxon(context.Context, string, *trade.YearRange, string, string) ([]string, error) {
	return []string{"W", "C"}, f.fail
}

func (f *fakeStore) Edges(_ context.Context, filter trade.Filter) ([]trade.Edge, error) {
	f.edgeCalls.Add(1)
	f.lastFilter = filter
	return f.edges[filter.Taxon], f.fail
}

func (f *fakeStore) Records(_ context.Context, filter trade.Filter, limit int) ([]trade.Record, error) {
	var out []trade.Record
	for _, r := range f.records {
		if r.Taxon == filter.Taxon {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, f.fail
}

func (f *fakeStore) Countries(context.Context) ([]trade.Country, error) {
	return []trade.Country{
		{Code: "CN", Name: "China", Latitude: 35, Longitude: 103},
		{Code: "DE", Name: "Germany", Latitude: 51, Longitude: 10},
		{Code: "GH", Name: "Ghana", Latitude: 7.9, Longitude: -1},
		{Code: "US", Name: "United States", Latitude: 37, Longitude: -95},
	}, f.fail
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	c := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = c.Close() })
	return New(store, c, config.Defaults().Dashboard, time.Minute)
}

func TestSummary(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1,234,567", sum.RecordsText)
	assert.Equal(t, "1,200", sum.ImportersText)
	assert.Equal(t, "Records", sum.Metrics()[0].Label)
	assert.Len(t, sum.Metrics(), 4)
}

func TestTaxonOptions(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(t, store)

	sci, err := svc.TaxonOptions(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python regius", "Testudo graeca"}, sci, "only taxa with a common name")

	common, err := svc.TaxonOptions(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ball python", "Greek tortoise", "royal python"}, common, "English collation ignores case")

	store.vernacular = nil
	svc = newTestService(t, store)
	sci, err = svc.TaxonOptions(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Boa constrictor", "Python regius", "Testudo graeca"}, sci)
}

func TestResolveTaxon(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore())

	tests := []struct {
		name       string
		scientific bool
		want       string
		wantErr    bool
	}{
		{"royal python", false, "Python regius", false},
		{"Greek tortoise", false, "Testudo graeca", false},
		{"Testudo graeca", true, "Testudo graeca", false},
		{"unicorn", false, "", true},
		{"ball python", true, "", true},
		{"  ", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveTaxon(ctx, tt.name, tt.scientific)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownTaxon)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectorOptions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore())
	years := &trade.YearRange{From: 2000, To: 2010}

	terms, err := svc.TermOptions(ctx, "Python regius", years)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALL", "bodies", "live", "skins"}, terms)

	purposes, err := svc.PurposeOptions(ctx, "Python regius", years, "ALL")
	require.NoError(t, err)
	assert.Equal(t, []string{"ALL", "Commercial", "Zoo"}, purposes, "unknown codes are dropped")

	sources, err := svc.SourceOptions(ctx, "Python regius", years, "live", "Commercial")
	require.NoError(t, err)
	assert.Equal(t, []string{"ALL", "Animals bred in captivity", "Specimens taken from the wild"}, sources)

	_, err = svc.SourceOptions(ctx, "Python regius", years, "live", "Piracy")
	require.ErrorIs(t, err, trade.ErrInvalidFilter)
}

func TestQuery_BuildsNetwork(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(t, store)

	res, err := svc.Query(ctx, Request{
		Taxon:      "royal python",
		Purpose:    "Commercial",
		Source:     "w",
		Term:       "ALL",
		Centrality: "Out-Degree",
	})
	require.NoError(t, err)

	want := trade.Filter{
		Taxon:   "Python regius",
		Years:   &trade.YearRange{From: 1975, To: 2024},
		Purpose: "T",
		Source:  "W",
	}
	if diff := cmp.Diff(want, res.Filter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, network.OutDegree, res.Centrality)
	assert.Empty(t, res.Message)
	assert.True(t, res.Plotted())
	require.NotNil(t, res.Map)

	assert.Equal(t, []string{"Germany", "Ghana", "United States"}, res.Exporters)
	assert.Equal(t, []string{"China", "United States"}, res.Importers, "selected exporter is not an importer option")
	assert.Equal(t, "DE", res.SelectedExporter)
	assert.Equal(t, "CN", res.SelectedImporter)

	require.Len(t, res.Nodes, 4)
	assert.Equal(t, "GH", res.Nodes[0].ID)
	assert.InDelta(t, 200.0/3, res.Nodes[0].Size, 1e-9)
	assert.Equal(t, "#1f77b4", res.Nodes[2].Color, "DE is the selected exporter")
	assert.Equal(t, "#ff7f0e", res.Nodes[3].Color, "CN is the selected importer")
	assert.Len(t, res.Links, 4)
	assert.Len(t, res.Records, 3)
	assert.False(t, res.Truncated)
}

func TestQuery_PairSelection(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	res, err := svc.Query(context.Background(), Request{
		Taxon:      "Python regius",
		Scientific: true,
		Exporter:   "gh",
		Importer:   "United States",
	})
	require.NoError(t, err)
	assert.Equal(t, "GH", res.SelectedExporter)
	assert.Equal(t, "Ghana", res.ExporterName)
	assert.Equal(t, "US", res.SelectedImporter)
	assert.Equal(t, network.Degree, res.Centrality)
}

func TestQuery_Messages(t *testing.T) {
	ctx := context.Background()

	t.Run("no results", func(t *testing.T) {
		store := newFakeStore()
		store.vernacular = append(store.vernacular, trade.Vernacular{CompleteName: "Boa constrictor", VernacularName: "boa"})
		svc := newTestService(t, store)

		res, err := svc.Query(ctx, Request{Taxon: "boa"})
		require.NoError(t, err)
		assert.Equal(t, MsgNoResults, res.Message)
		assert.False(t, res.Plotted())
		assert.Nil(t, res.Map)
	})

	t.Run("too many edges", func(t *testing.T) {
		cfg := config.Defaults().Dashboard
		cfg.MaxPlotEdges = 3
		svc := New(newFakeStore(), nil, cfg, time.Minute)

		res, err := svc.Query(ctx, Request{Taxon: "ball python"})
		require.NoError(t, err)
		assert.Equal(t, MsgTooMany, res.Message)
		assert.False(t, res.Plotted())
		assert.Len(t, res.Edges, 4, "tables are still filled")
		assert.NotEmpty(t, res.Exporters)
	})

	t.Run("plot cap boundary", func(t *testing.T) {
		tests := []struct {
			limit   int
			plotted bool
		}{
			{limit: 4, plotted: false}, // exactly the cap
			{limit: 5, plotted: true},
		}
		for _, tt := range tests {
			cfg := config.Defaults().Dashboard
			cfg.MaxPlotEdges = tt.limit
			svc := New(newFakeStore(), nil, cfg, time.Minute)

			res, err := svc.Query(ctx, Request{Taxon: "ball python"})
			require.NoError(t, err)
			require.Len(t, res.Edges, 4)
			assert.Equal(t, tt.plotted, res.Plotted(), "limit %d", tt.limit)
			if !tt.plotted {
				assert.Equal(t, MsgTooMany, res.Message)
			}
		}
	})

	t.Run("eigenvector without convergence", func(t *testing.T) {
		svc := newTestService(t, newFakeStore())

		res, err := svc.Query(ctx, Request{Taxon: "Greek tortoise", Centrality: "eigenvector"})
		require.NoError(t, err)
		assert.Equal(t, MsgNoConvergence, res.Message)
		require.True(t, res.Plotted())
		for _, n := range res.Nodes {
			assert.False(t, n.Sized)
		}
	})
}

func TestQuery_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore())

	_, err := svc.Query(ctx, Request{Taxon: "ball python", Centrality: "pagerank"})
	require.ErrorIs(t, err, network.ErrUnknownCentrality)

	_, err = svc.Query(ctx, Request{Taxon: "ball python", Years: &trade.YearRange{From: 2010, To: 2000}})
	require.ErrorIs(t, err, trade.ErrInvalidFilter)

	_, err = svc.Query(ctx, Request{Taxon: "dodo"})
	require.ErrorIs(t, err, ErrUnknownTaxon)

	broken := newFakeStore()
	broken.fail = errors.New("disk on fire")
	_, err = newTestService(t, broken).Summary(ctx)
	require.ErrorContains(t, err, "disk on fire")
}

func TestQuery_Cached(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(t, store)

	req := Request{Taxon: "ball python", Weighted: true}
	first, err := svc.Query(ctx, req)
	require.NoError(t, err)
	second, err := svc.Query(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), store.edgeCalls.Load())
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}

	svc.Invalidate(ctx)
	_, err = svc.Query(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), store.edgeCalls.Load())

	stats := svc.Stats()
	assert.Equal(t, "memory", stats.CacheBackend)
	assert.Positive(t, stats.CacheHits)
	assert.Positive(t, stats.QueryCount)
	assert.Zero(t, stats.ErrorCount)
	assert.Greater(t, stats.GoroutineCount, 0)
	assert.Greater(t, stats.MemoryUsageMB, 0.0)
}

func TestCached_LoadOutlivesCanceledCaller(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	started := make(chan struct{})
	release := make(chan struct{})
	var loads atomic.Int64
	var loadErr atomic.Value
	load := func(ctx context.Context) (string, error) {
		if loads.Add(1) > 1 {
			return "network", nil
		}
		close(started)
		<-release
		loadErr.Store(fmt.Sprint(ctx.Err()))
		return "network", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached(ctx, svc, "shared", load)
		firstErr <- err
	}()
	<-started
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		v   string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := cached(context.Background(), svc, "shared", load)
		second <- result{v, err}
	}()
	close(release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "network", got.v)
	assert.Equal(t, "<nil>", loadErr.Load(), "the shared load must not see the first caller's cancellation")
}

func TestSetConfig_DropsCachedResults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore())

	res, err := svc.Query(ctx, Request{Taxon: "ball python"})
	require.NoError(t, err)
	require.True(t, res.Plotted())

	cfg := svc.Config()
	cfg.MaxPlotEdges = 2
	svc.SetConfig(ctx, cfg)
	assert.Equal(t, 2, svc.Config().MaxPlotEdges)

	res, err = svc.Query(ctx, Request{Taxon: "ball python"})
	require.NoError(t, err)
	assert.Equal(t, MsgTooMany, res.Message)
}

func TestRecords_Truncated(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	recs, truncated, err := svc.Records(context.Background(), Request{Taxon: "ball python"}, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.True(t, truncated)

	recs, truncated, err = svc.Records(context.Background(), Request{Taxon: "ball python"}, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.False(t, truncated)
}

func TestCountry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore())

	c, err := svc.Country(ctx, " de ")
	require.NoError(t, err)
	assert.Equal(t, "Germany", c.Name)

	_, err = svc.Country(ctx, "ZZ")
	assert.ErrorIs(t, err, ErrUnknownCountry)
}

func TestPage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore())
	site := about.Attribution{Title: "CITES Trade Network"}

	data, err := svc.Page(ctx, Request{Purpose: "T", Term: "nonsense"}, site)
	require.NoError(t, err)

	assert.Equal(t, "CITES Trade Network", data.Site.Title)
	assert.Equal(t, "ball python", data.Form.Taxon, "first common name is preselected")
	assert.Equal(t, "ALL", data.Form.Term, "unknown term falls back to ALL")
	assert.Equal(t, "Commercial", data.Form.Purpose, "codes are shown as descriptions")
	assert.Equal(t, "ALL", data.Form.Source)
	assert.Equal(t, "Degree", data.Form.Centrality)
	assert.Len(t, data.Form.Centralities, 6)
	assert.Equal(t, 1975, data.Form.From)
	assert.Equal(t, "Germany", data.Form.Exporter)
	assert.NotNil(t, data.Vis)
	assert.Len(t, data.Edges, 4)
	assert.Len(t, data.Summary, 4)
}

func TestPage_EmptyDataset(t *testing.T) {
	store := newFakeStore()
	store.vernacular = nil
	store.taxa = nil
	svc := newTestService(t, store)

	data, err := svc.Page(context.Background(), Request{}, about.Attribution{})
	require.NoError(t, err)
	assert.Equal(t, MsgNoResults, data.Message)
	assert.Nil(t, data.Vis)
}

func TestSortNames(t *testing.T) {
	got := sortNames([]string{"zebra", "", "Aardvark", "zebra", "ápple", "Bee"})
	assert.Equal(t, []string{"Aardvark", "ápple", "Bee", "zebra"}, got)
	assert.Equal(t, []string{"ALL", "a"}, withAll([]string{"a"}))
}
