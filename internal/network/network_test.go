// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package network

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/citesnet/internal/trade"
)

func edges(pairs ...string) []trade.Edge {
	out := make([]trade.Edge, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, trade.Edge{Exporter: p[:2], Importer: p[3:], Weight: float64(i + 1)})
	}
	return out
}

// diamond is GH->US, GH->DE, US->DE, DE->CN.
func diamond() *Graph {
	return Build(edges("GH>US", "GH>DE", "US>DE", "DE>CN"), false)
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestBuild(t *testing.T) {
	g := Build([]trade.Edge{
		{Exporter: "US", Importer: "DE", Weight: 1},
		{Exporter: "GH", Importer: "US", Weight: 2},
		{Exporter: "US", Importer: "CN", Weight: 3},
		{Exporter: "US", Importer: "DE", Weight: 4},
	}, true)

	assert.Equal(t, 4, g.Order())
	assert.Equal(t, 3, g.Size())
	assert.True(t, g.Has("GH"))
	assert.False(t, g.Has("ZW"))

	ids := make([]string, 0, g.Order())
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"US", "DE", "GH", "CN"}, ids, "first-seen order")

	want := []Link{
		{From: "US", To: "DE", Weight: 4, Weighted: true},
		{From: "US", To: "CN", Weight: 3, Weighted: true},
		{From: "GH", To: "US", Weight: 2, Weighted: true},
	}
	if diff := cmp.Diff(want, g.Links()); diff != "" {
		t.Errorf("Links() mismatch (-want +got):\n%s", diff)
	}

	unweighted := Build(edges("US>DE"), false)
	assert.False(t, unweighted.Weighted())
	assert.Equal(t, []Link{{From: "US", To: "DE"}}, unweighted.Links())
}

func TestCompute(t *testing.T) {
	tests := []struct {
		c    Centrality
		want []float64
	}{
		{Degree, []float64{2.0 / 3, 2.0 / 3, 1, 1.0 / 3}},
		{InDegree, []float64{0, 1.0 / 3, 2.0 / 3, 1.0 / 3}},
		{OutDegree, []float64{2.0 / 3, 1.0 / 3, 1.0 / 3, 0}},
		{Closeness, []float64{0, 1.0 / 3, 2.0 / 3, 0.6}},
		{Betweenness, []float64{0, 0, 1.0 / 3, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			// Node order: GH, US, DE, CN.
			got, err := Compute(diamond(), tt.c)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Compute(%s) mismatch (-want +got):\n%s", tt.c, diff)
			}
		})
	}
}

func TestDegree_TinyGraphs(t *testing.T) {
	got, err := Compute(Build(edges("GH>GH"), false), Degree)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, got)

	got, err = Compute(Build(nil, false), InDegree)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBetweenness_SmallGraphsAreNotNormalized(t *testing.T) {
	got, err := Compute(Build(edges("GH>US", "US>GH"), false), Betweenness)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)
}

func TestEigenvector(t *testing.T) {
	got, err := Compute(Build(edges("GH>US", "US>DE", "DE>GH"), false), Eigenvector)
	require.NoError(t, err)
	want := []float64{0.5773502691896258, 0.5773502691896258, 0.5773502691896258}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("eigenvector mismatch (-want +got):\n%s", diff)
	}

	_, err = Compute(Build(edges("GH>US"), false), Eigenvector)
	require.ErrorIs(t, err, ErrNoConvergence, "a chain has no dominant eigenvector")

	_, err = Compute(Build(nil, false), Eigenvector)
	require.ErrorIs(t, err, ErrEmptyGraph)
}

func TestParseCentrality(t *testing.T) {
	tests := []struct {
		in      string
		want    Centrality
		wantErr bool
	}{
		{"Degree", Degree, false},
		{"In-Degree", InDegree, false},
		{"out degree", OutDegree, false},
		{"BETWEENNESS", Betweenness, false},
		{"closeness", Closeness, false},
		{"Eigenvector", Eigenvector, false},
		{"pagerank", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCentrality(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCentrality)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, c := range Centralities() {
		parsed, err := ParseCentrality(c.Label())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestScaleAndColor(t *testing.T) {
	var unbuilt Graph
	require.ErrorIs(t, unbuilt.Scale(Degree), ErrGraphNotBuilt)
	require.ErrorIs(t, unbuilt.Color(nil, nil, DefaultPalette()), ErrGraphNotBuilt)

	g := diamond()
	require.ErrorIs(t, g.Scale("pagerank"), ErrUnknownCentrality)
	require.NoError(t, g.Scale(InDegree))
	require.NoError(t, g.Color([]string{"GH", "DE"}, []string{"DE", "CN"}, DefaultPalette()))

	want := []Node{
		{ID: "GH", Size: 0, Sized: true, Color: "#1f77b4"},
		{ID: "US", Size: 100.0 / 3, Sized: true, Color: "rgb(0,0,0)"},
		{ID: "DE", Size: 200.0 / 3, Sized: true, Color: "#1f77b4"},
		{ID: "CN", Size: 100.0 / 3, Sized: true, Color: "#ff7f0e"},
	}
	if diff := cmp.Diff(want, g.Nodes(), approx); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}
}
