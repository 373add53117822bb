// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package network turns aggregated trade edges into a directed country graph
// and sizes and colors its nodes for display.
package network

import (
	"github.com/ManuGH/citesnet/internal/trade"
)

// Palette holds the node highlight colors.
type Palette struct {
	Exporter string `json:"exporter"`
	Importer string `json:"importer"`
	Default  string `json:"default"`
}

// DefaultPalette returns the stock exporter, importer and default colors.
func DefaultPalette() Palette {
	return Palette{
		Exporter: "#1f77b4",
		Importer: "#ff7f0e",
		Default:  "rgb(0,0,0)",
	}
}

// Node is a country in the trade graph.
type Node struct {
	ID    string  `json:"id"`
	Size  float64 `json:"size"`
	Sized bool    `json:"sized"`
	Color string  `json:"color,omitempty"`
}

// Link is a directed trade relation. Weight is only meaningful when Weighted.
type Link struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Weight   float64 `json:"weight,omitempty"`
	Weighted bool    `json:"weighted"`
}

// Graph is a directed simple graph keyed by country code. Nodes keep the
// order in which they were first seen; at most one link exists per ordered pair.
type Graph struct {
	built    bool
	weighted bool
	ids      []string
	index    map[string]int
	succ     [][]int
	pred     [][]int
	weight   map[[2]int]float64
	sizes    []float64
	sized    bool
	colors   []string
}

// Build creates the graph from edges. A repeated pair keeps the weight of its
// last occurrence. Weights are only attached when weighted is set.
func Build(edges []trade.Edge, weighted bool) *Graph {
	g := &Graph{
		built:    true,
		weighted: weighted,
		index:    make(map[string]int),
		weight:   make(map[[2]int]float64, len(edges)),
	}
	for _, e := range edges {
		u := g.addNode(e.Exporter)
		v := g.addNode(e.Importer)
		key := [2]int{u, v}
		if _, ok := g.weight[key]; !ok {
			g.succ[u] = append(g.succ[u], v)
			g.pred[v] = append(g.pred[v], u)
		}
		g.weight[key] = e.Weight
	}
	return g
}

func (g *Graph) addNode(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.ids)
	g.index[id] = i
	g.ids = append(g.ids, id)
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return i
}

// Built reports whether the graph came from Build.
func (g *Graph) Built() bool { return g != nil && g.built }

// Weighted reports whether links carry weights.
func (g *Graph) Weighted() bool { return g.Built() && g.weighted }

// Order returns the number of nodes.
func (g *Graph) Order() int {
	if g == nil {
		return 0
	}
	return len(g.ids)
}

// Size returns the number of links.
func (g *Graph) Size() int {
	if g == nil {
		return 0
	}
	return len(g.weight)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[id]
	return ok
}

// Nodes returns the nodes in insertion order with their display attributes.
func (g *Graph) Nodes() []Node {
	out := make([]Node, g.Order())
	for i, id := range g.ids {
		out[i] = Node{ID: id}
		if g.sized {
			out[i].Size = g.sizes[i]
			out[i].Sized = true
		}
		if g.colors != nil {
			out[i].Color = g.colors[i]
		}
	}
	return out
}

// Links returns the links grouped by source node in node order, each group
// in insertion order.
func (g *Graph) Links() []Link {
	out := make([]Link, 0, g.Size())
	for u, targets := range g.succ {
		for _, v := range targets {
			l := Link{From: g.ids[u], To: g.ids[v]}
			if g.weighted {
				l.Weight = g.weight[[2]int{u, v}]
				l.Weighted = true
			}
			out = append(out, l)
		}
	}
	return out
}

// Scale sizes every node by the centrality measure, multiplied by 100.
func (g *Graph) Scale(c Centrality) error {
	if !g.Built() {
		return ErrGraphNotBuilt
	}
	values, err := Compute(g, c)
	if err != nil {
		return err
	}
	g.sizes = make([]float64, len(values))
	for i, v := range values {
		g.sizes[i] = v * 100
	}
	g.sized = true
	return nil
}

// Color paints exporters, then importers, then everything else. A node in
// both sets takes the exporter color.
func (g *Graph) Color(exporters, importers []string, p Palette) error {
	if !g.Built() {
		return ErrGraphNotBuilt
	}
	exp := toSet(exporters)
	imp := toSet(importers)
	g.colors = make([]string, len(g.ids))
	for i, id := range g.ids {
		switch {
		case exp[id]:
			g.colors[i] = p.Exporter
		case imp[id]:
			g.colors[i] = p.Importer
		default:
			g.colors[i] = p.Default
		}
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
