// SPDX-License-Identifier: MIT

package dashboard

import "errors"

// ErrUnknownTaxon is returned when a selected name maps to no traded taxon.
var ErrUnknownTaxon = errors.New("dashboard: unknown taxon")

// ErrUnknownCountry is returned for a code missing from the country table.
var ErrUnknownCountry = errors.New("dashboard: unknown country")

// User facing messages.
const (
	MsgNoResults     = "No results, please try again."
	MsgTooMany       = "Too many nodes to plot, please narrow search."
	MsgNoConvergence = "Eigenvector centrality did not converge, nodes are shown unscaled."
)
