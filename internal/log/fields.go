// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldTraceID       = "trace_id"
	FieldSpanID        = "span_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Trade query fields
	FieldTaxon      = "taxon"
	FieldTerm       = "term"
	FieldPurpose    = "purpose"
	FieldSource     = "source"
	FieldYearFrom   = "year_from"
	FieldYearTo     = "year_to"
	FieldCentrality = "centrality"

	// Graph fields
	FieldNodes = "nodes"
	FieldEdges = "edges"

	// Ingest fields
	FieldFile    = "file"
	FieldRows    = "rows"
	FieldSkipped = "skipped"
	FieldTable   = "table"

	// Path / URL fields
	FieldPath = "path"
)
