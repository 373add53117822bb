// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package trade holds the CITES trade domain model: shipment records,
// aggregated exporter to importer edges, reference tables and query filters.
package trade
