// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/persistence/sqlite"
	"github.com/ManuGH/citesnet/internal/trade"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "citesnet.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func feed(records ...trade.Record) <-chan trade.Record {
	ch := make(chan trade.Record, len(records))
	for _, r := range records {
		ch <- r
	}
	close(ch)
	return ch
}

func years(from, to int) *trade.YearRange {
	return &trade.YearRange{From: from, To: to}
}

// fixture is a small slice of royal python and elephant trade.
var fixture = []trade.Record{
	{ID: "1", Year: 2000, Taxon: "Python regius", Term: "live", Quantity: 10, Exporter: "GH", Importer: "US", Purpose: "T", Source: "W", Appendix: "II"},
	{ID: "2", Year: 2001, Taxon: "Python regius", Term: "live", Quantity: 1.6, Exporter: "GH", Importer: "US", Purpose: "T", Source: "C"},
	{ID: "3", Year: 2001, Taxon: "Python regius", Term: "live", Quantity: 2.4, Exporter: "GH", Importer: "US", Purpose: "T", Source: "C"},
	{ID: "4", Year: 2005, Taxon: "Python regius", Term: "skins", Quantity: 50, Exporter: "TG", Importer: "DE", Purpose: "P", Source: "W"},
	{ID: "5", Year: 2005, Taxon: "Python regius", Term: "live", Quantity: 7, Exporter: "", Importer: "US", Purpose: "S"},
	{ID: "6", Year: 1980, Taxon: "Python regius", Term: "live", Quantity: 3, Exporter: "BJ", Importer: ""},
	{ID: "7", Year: 2010, Taxon: "Loxodonta africana", Term: "ivory carvings", Quantity: 1, Exporter: "ZW", Importer: "CN", Purpose: "H", Source: "W"},
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	n, err := s.ReplaceShipments(ctx, feed(fixture...), 2)
	require.NoError(t, err)
	require.Equal(t, int64(len(fixture)), n)
}

func TestMigrator_UpDownVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.db")
	m := NewMigrator(path, sqlite.DefaultConfig())

	v, dirty, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx), "up is idempotent")
	v, _, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	require.NoError(t, m.Down(ctx))
	v, _, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
}

func TestSummaryAndTaxa(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, trade.Summary{}, sum)

	seed(t, s)

	sum, err = s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, trade.Summary{Records: 7, Taxa: 2, Exporters: 4, Importers: 3}, sum)

	taxa, err := s.UniqueTaxa(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Loxodonta africana", "Python regius"}, taxa)
}

func TestReplaceShipments_Swaps(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed(t, s)

	n, err := s.ReplaceShipments(ctx, feed(fixture[0]), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Records)
}

func TestReplaceShipments_CancelKeepsOldData(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan trade.Record, 1)
	ch <- fixture[0]
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := s.ReplaceShipments(ctx, ch, 10)
	require.ErrorIs(t, err, context.Canceled)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(len(fixture)), sum.Records, "rolled back transaction keeps the previous dataset")
}

func TestEdges(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter trade.Filter
		want   []trade.Edge
	}{
		{
			name:   "all years, partners required",
			filter: trade.Filter{Taxon: "Python regius"},
			want: []trade.Edge{
				{Exporter: "GH", Importer: "US", Weight: 14},
				{Exporter: "TG", Importer: "DE", Weight: 50},
			},
		},
		{
			name:   "year range",
			filter: trade.Filter{Taxon: "Python regius", Years: years(2001, 2004)},
			want:   []trade.Edge{{Exporter: "GH", Importer: "US", Weight: 4}},
		},
		{
			name:   "term ALL is no constraint",
			filter: trade.Filter{Taxon: "Python regius", Years: years(1975, 2024), Term: "ALL"},
			want: []trade.Edge{
				{Exporter: "GH", Importer: "US", Weight: 14},
				{Exporter: "TG", Importer: "DE", Weight: 50},
			},
		},
		{
			name:   "term and purpose",
			filter: trade.Filter{Taxon: "Python regius", Term: "skins", Purpose: "p"},
			want:   []trade.Edge{{Exporter: "TG", Importer: "DE", Weight: 50}},
		},
		{
			name:   "source",
			filter: trade.Filter{Taxon: "Python regius", Source: "C"},
			want:   []trade.Edge{{Exporter: "GH", Importer: "US", Weight: 4}},
		},
		{
			name:   "no match",
			filter: trade.Filter{Taxon: "Python regius", Years: years(1974, 1975)},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Edges(ctx, tt.filter)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Edges() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEdges_InvalidFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Edges(ctx, trade.Filter{})
	require.ErrorIs(t, err, trade.ErrInvalidFilter)

	_, err = s.Edges(ctx, trade.Filter{Taxon: "Python regius", Years: years(2010, 2000)})
	require.ErrorIs(t, err, trade.ErrInvalidFilter)
}

func TestRecords(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	all, err := s.Records(ctx, trade.Filter{Taxon: "Python regius"}, 0)
	require.NoError(t, err)
	require.Len(t, all, 6, "no year range keeps rows without partners")
	assert.Equal(t, 1980, all[0].Year)
	assert.Equal(t, "", all[0].Importer)

	ranged, err := s.Records(ctx, trade.Filter{Taxon: "Python regius", Years: years(1975, 2024)}, 0)
	require.NoError(t, err)
	assert.Len(t, ranged, 4)

	limited, err := s.Records(ctx, trade.Filter{Taxon: "Python regius", Years: years(1975, 2024)}, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	if diff := cmp.Diff(fixture[0], limited[0]); diff != "" {
		t.Errorf("record round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionQueries(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	terms, err := s.TermsForTaxon(ctx, "Python regius", years(1975, 2024))
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "skins"}, terms)

	terms, err = s.TermsForTaxon(ctx, "Python regius", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "skins"}, terms)

	purposes, err := s.PurposesForTaxon(ctx, "Python regius", years(1975, 2024), "ALL")
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "T"}, purposes, "rows without an exporter are ignored")

	purposes, err = s.PurposesForTaxon(ctx, "Python regius", years(1975, 2024), "live")
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, purposes)

	sources, err := s.SourcesForTaxon(ctx, "Python regius", years(1975, 2024), "", "T")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "W"}, sources)

	_, err = s.TermsForTaxon(ctx, " ", nil)
	require.ErrorIs(t, err, trade.ErrInvalidFilter)
}

func TestReferenceTables(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	n, err := s.ReplaceCountries(ctx, []trade.Country{
		{Code: "US", Name: "United States of America", Latitude: 37.09, Longitude: -95.71},
		{Code: "GH", Name: "Ghana", Latitude: 7.95, Longitude: -1.02},
		{Code: "", Name: "Unknown"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	countries, err := s.Countries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "GH", countries[0].Code)

	n, err = s.ReplaceVernaculars(ctx, []trade.Vernacular{
		{CompleteName: "Python regius", VernacularName: "Ball Python"},
		{CompleteName: "Python regius", VernacularName: "Royal Python"},
		{CompleteName: "Python regius", VernacularName: "Royal Python"},
		{CompleteName: "Panthera leo", VernacularName: "Lion"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n, "repeated pairs collapse")

	all, err := s.Vernaculars(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	traded, err := s.TaxonVernaculars(ctx)
	require.NoError(t, err)
	assert.Equal(t, []trade.Vernacular{
		{CompleteName: "Python regius", VernacularName: "Ball Python"},
		{CompleteName: "Python regius", VernacularName: "Royal Python"},
	}, traded)
}

func TestIngestRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LastIngestRun(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordIngestRun(ctx, IngestRun{StartedAt: start, FinishedAt: start.Add(time.Minute), Files: 1, Rows: 10}))
	want := IngestRun{StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + time.Minute), Files: 2, Rows: 20, Skipped: 1, Countries: 3, Vernaculars: 4}
	require.NoError(t, s.RecordIngestRun(ctx, want))

	got, err := s.LastIngestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCloseAndPing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Ping(ctx), ErrClosed)
}
