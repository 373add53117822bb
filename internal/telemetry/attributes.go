// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for citesnet.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/citesnet/internal/trade"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Trade query attributes
	TradeTaxonKey   = "trade.taxon"
	TradeYearsKey   = "trade.years"
	TradeTermKey    = "trade.term"
	TradePurposeKey = "trade.purpose"
	TradeSourceKey  = "trade.source"
	TradeRowsKey    = "trade.rows"

	// Network attributes
	NetworkCentralityKey = "network.centrality"
	NetworkWeightedKey   = "network.weighted"
	NetworkNodesKey      = "network.nodes"
	NetworkEdgesKey      = "network.edges"

	// Ingest attributes
	IngestFileKey    = "ingest.file"
	IngestTableKey   = "ingest.table"
	IngestRowsKey    = "ingest.rows"
	IngestSkippedKey = "ingest.skipped"

	// Cache attributes
	CacheBackendKey = "cache.backend"
	CacheHitKey     = "cache.hit"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// FilterAttributes describes a trade filter. Unset selectors are omitted.
func FilterAttributes(f trade.Filter) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	attrs = append(attrs, attribute.String(TradeTaxonKey, f.Taxon))
	if f.Years != nil {
		attrs = append(attrs, attribute.String(TradeYearsKey, f.Years.String()))
	}
	if f.Term != "" {
		attrs = append(attrs, attribute.String(TradeTermKey, f.Term))
	}
	if f.Purpose != "" {
		attrs = append(attrs, attribute.String(TradePurposeKey, f.Purpose))
	}
	if f.Source != "" {
		attrs = append(attrs, attribute.String(TradeSourceKey, f.Source))
	}
	return attrs
}

// NetworkAttributes describes a built trade network.
func NetworkAttributes(centrality string, weighted bool, nodes, edges int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(NetworkCentralityKey, centrality),
		attribute.Bool(NetworkWeightedKey, weighted),
		attribute.Int(NetworkNodesKey, nodes),
		attribute.Int(NetworkEdgesKey, edges),
	}
}

// IngestAttributes describes one loaded input file.
func IngestAttributes(file, table string, rows, skipped int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if file != "" {
		attrs = append(attrs, attribute.String(IngestFileKey, file))
	}
	return append(attrs,
		attribute.String(IngestTableKey, table),
		attribute.Int(IngestRowsKey, rows),
		attribute.Int(IngestSkippedKey, skipped),
	)
}

// CacheAttributes records the outcome of a cache lookup.
func CacheAttributes(backend string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CacheBackendKey, backend),
		attribute.Bool(CacheHitKey, hit),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
