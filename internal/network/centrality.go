// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package network

import (
	"fmt"
	"math"
	"strings"
)

// Centrality names a node importance measure.
type Centrality string

const (
	Degree      Centrality = "degree"
	InDegree    Centrality = "indegree"
	OutDegree   Centrality = "outdegree"
	Betweenness Centrality = "betweenness"
	Closeness   Centrality = "closeness"
	Eigenvector Centrality = "eigenvector"
)

// Eigenvector power iteration limits.
const (
	eigenMaxIter = 100
	eigenTol     = 1e-6
)

var labels = map[Centrality]string{
	Degree:      "Degree",
	InDegree:    "In-Degree",
	OutDegree:   "Out-Degree",
	Betweenness: "Betweenness",
	Closeness:   "Closeness",
	Eigenvector: "Eigenvector",
}

// Centralities lists the measures in the order the dashboard offers them.
func Centralities() []Centrality {
	return []Centrality{Degree, InDegree, OutDegree, Betweenness, Closeness, Eigenvector}
}

// ParseCentrality accepts a display label or key: case is ignored and dashes
// and spaces are dropped, so "In-Degree" parses as InDegree.
func ParseCentrality(label string) (Centrality, error) {
	key := strings.ToLower(label)
	key = strings.NewReplacer("-", "", " ", "", "_", "").Replace(key)
	c := Centrality(key)
	if _, ok := labels[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCentrality, label)
	}
	return c, nil
}

// Label returns the display name, e.g. "Out-Degree".
func (c Centrality) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Compute returns the centrality of every node, indexed like Graph.Nodes.
func Compute(g *Graph, c Centrality) ([]float64, error) {
	if !g.Built() {
		return nil, ErrGraphNotBuilt
	}
	switch c {
	case Degree:
		return degree(g, true, true), nil
	case InDegree:
		return degree(g, true, false), nil
	case OutDegree:
		return degree(g, false, true), nil
	case Closeness:
		return closeness(g), nil
	case Betweenness:
		return betweenness(g), nil
	case Eigenvector:
		return eigenvector(g)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCentrality, string(c))
	}
}

// degree is the fraction of other nodes a node links to. Graphs with at most
// one node give every node 1.
func degree(g *Graph, in, out bool) []float64 {
	n := g.Order()
	res := make([]float64, n)
	if n <= 1 {
		for i := range res {
			res[i] = 1
		}
		return res
	}
	s := 1 / float64(n-1)
	for i := 0; i < n; i++ {
		d := 0
		if in {
			d += len(g.pred[i])
		}
		if out {
			d += len(g.succ[i])
		}
		res[i] = float64(d) * s
	}
	return res
}

// bfs returns hop distances from src following adj, -1 for unreachable nodes.
func bfs(adj [][]int, src int, dist []int) []int {
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if dist[v] < 0 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}

// closeness measures how close a node is to the nodes that can reach it,
// using incoming paths and the Wasserman and Faust correction for graphs
// that are not strongly connected.
func closeness(g *Graph) []float64 {
	n := g.Order()
	res := make([]float64, n)
	dist := make([]int, n)
	for v := 0; v < n; v++ {
		bfs(g.pred, v, dist)
		reached, total := 0, 0
		for _, d := range dist {
			if d >= 0 {
				reached++
				total += d
			}
		}
		if total > 0 && n > 1 {
			r := float64(reached - 1)
			res[v] = (r / float64(total)) * (r / float64(n-1))
		}
	}
	return res
}

// betweenness is Brandes' algorithm on unweighted shortest paths, normalized
// by 1/((n-1)(n-2)) when the graph has more than two nodes.
func betweenness(g *Graph) []float64 {
	n := g.Order()
	cb := make([]float64, n)
	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[s] = 1
		dist[s] = 0
		stack := make([]int, 0, n)
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.succ[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	if n > 2 {
		scale := 1 / float64((n-1)*(n-2))
		for i := range cb {
			cb[i] *= scale
		}
	}
	return cb
}

// eigenvector runs power iteration on (A+I) with scores flowing along link
// direction, so a node is important when important nodes export to it.
func eigenvector(g *Graph) ([]float64, error) {
	n := g.Order()
	if n == 0 {
		return nil, ErrEmptyGraph
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	last := make([]float64, n)
	for iter := 0; iter < eigenMaxIter; iter++ {
		copy(last, x)
		for u := 0; u < n; u++ {
			for _, v := range g.succ[u] {
				x[v] += last[u]
			}
		}
		norm := 0.0
		for _, v := range x {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		diff := 0.0
		for i := range x {
			x[i] /= norm
			diff += math.Abs(x[i] - last[i])
		}
		if diff < float64(n)*eigenTol {
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrNoConvergence, eigenMaxIter)
}
