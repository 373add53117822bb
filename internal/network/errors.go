// SPDX-License-Identifier: MIT

package network

import "errors"

var (
	// ErrGraphNotBuilt is returned when a graph is scaled or colored before Build.
	ErrGraphNotBuilt = errors.New("network: graph not built")
	// ErrUnknownCentrality is returned for a centrality name outside the supported set.
	ErrUnknownCentrality = errors.New("network: unknown centrality")
	// ErrNoConvergence is returned when eigenvector power iteration does not settle.
	ErrNoConvergence = errors.New("network: eigenvector centrality did not converge")
	// ErrEmptyGraph is returned for centralities undefined on a graph without nodes.
	ErrEmptyGraph = errors.New("network: graph has no nodes")
)
