// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package render turns trade graphs into vis-network and Plotly descriptions
// and renders the HTML pages that display them.
package render

import (
	"github.com/dustin/go-humanize"

	"github.com/ManuGH/citesnet/internal/network"
	"github.com/ManuGH/citesnet/internal/trade"
)

// DefaultVisNodeSize is used for nodes that were never scaled.
const DefaultVisNodeSize = 10

// VisNode is a vis-network node.
type VisNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Size  float64 `json:"size"`
	Color string  `json:"color,omitempty"`
	Title string  `json:"title"`
}

// VisEdge is a vis-network edge. Value drives edge width when the graph is weighted.
type VisEdge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *float64 `json:"value,omitempty"`
	Title string   `json:"title,omitempty"`
}

// Repulsion configures the vis-network repulsion solver.
type Repulsion struct {
	NodeDistance   float64 `json:"nodeDistance"`
	CentralGravity float64 `json:"centralGravity"`
	SpringLength   float64 `json:"springLength"`
	SpringConstant float64 `json:"springConstant"`
	Damping        float64 `json:"damping"`
}

// VisPhysics selects the physics solver.
type VisPhysics struct {
	Solver    string    `json:"solver"`
	Repulsion Repulsion `json:"repulsion"`
}

// VisArrow toggles an arrow head.
type VisArrow struct {
	Enabled bool `json:"enabled"`
}

// VisEdgeOptions holds edge defaults.
type VisEdgeOptions struct {
	Arrows map[string]VisArrow `json:"arrows"`
}

// VisOptions is the options object handed to vis.Network.
type VisOptions struct {
	Physics VisPhysics     `json:"physics"`
	Edges   VisEdgeOptions `json:"edges"`
}

// VisGraph is everything the browser needs to draw the network.
type VisGraph struct {
	Height   string     `json:"height"`
	Directed bool       `json:"directed"`
	Nodes    []VisNode  `json:"nodes"`
	Edges    []VisEdge  `json:"edges"`
	Options  VisOptions `json:"options"`
}

// DefaultVisOptions returns the repulsion layout used by the dashboard.
func DefaultVisOptions() VisOptions {
	return VisOptions{
		Physics: VisPhysics{
			Solver: "repulsion",
			Repulsion: Repulsion{
				NodeDistance:   420,
				CentralGravity: 0.33,
				SpringLength:   110,
				SpringConstant: 0.10,
				Damping:        0.95,
			},
		},
		Edges: VisEdgeOptions{
			Arrows: map[string]VisArrow{"to": {Enabled: true}},
		},
	}
}

// VisNetwork describes g for vis-network. Nodes are labelled by ISO code and
// titled with the country name when it is known.
func VisNetwork(g *network.Graph, countries trade.CountryIndex) VisGraph {
	out := VisGraph{
		Height:   "900px",
		Directed: true,
		Nodes:    make([]VisNode, 0, g.Order()),
		Edges:    make([]VisEdge, 0, g.Size()),
		Options:  DefaultVisOptions(),
	}
	for _, n := range g.Nodes() {
		node := VisNode{ID: n.ID, Label: n.ID, Size: DefaultVisNodeSize, Color: n.Color, Title: n.ID}
		if n.Sized {
			node.Size = n.Size
		}
		if c, ok := countries.ByCode(n.ID); ok && c.Name != "" {
			node.Title = c.Name
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, l := range g.Links() {
		e := VisEdge{From: l.From, To: l.To}
		if l.Weighted {
			w := l.Weight
			e.Value = &w
			e.Title = humanize.Commaf(w)
		}
		out.Edges = append(out.Edges, e)
	}
	return out
}
