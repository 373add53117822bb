// SPDX-License-Identifier: MIT
package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/citesnet/internal/trade"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/v1/network", "http://localhost:8088/api/v1/network", 200)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "GET")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/v1/network")
	verifyAttribute(t, attrs, HTTPURLKey, "http://localhost:8088/api/v1/network")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestFilterAttributes(t *testing.T) {
	tests := []struct {
		name    string
		filter  trade.Filter
		wantLen int
	}{
		{
			name: "all fields",
			filter: trade.Filter{
				Taxon:   "Python regius",
				Years:   &trade.YearRange{From: 2000, To: 2010},
				Term:    "live",
				Purpose: "T",
				Source:  "W",
			},
			wantLen: 5,
		},
		{
			name:    "only taxon",
			filter:  trade.Filter{Taxon: "Python regius"},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := FilterAttributes(tt.filter)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			verifyAttribute(t, attrs, TradeTaxonKey, "Python regius")
		})
	}

	attrs := FilterAttributes(trade.Filter{Taxon: "x", Years: &trade.YearRange{From: 1975, To: 2024}})
	verifyAttribute(t, attrs, TradeYearsKey, "1975-2024")
}

func TestNetworkAttributes(t *testing.T) {
	attrs := NetworkAttributes("betweenness", true, 12, 30)

	verifyAttribute(t, attrs, NetworkCentralityKey, "betweenness")
	verifyBoolAttribute(t, attrs, NetworkWeightedKey, true)
	verifyIntAttribute(t, attrs, NetworkNodesKey, 12)
	verifyIntAttribute(t, attrs, NetworkEdgesKey, 30)
}

func TestIngestAttributes(t *testing.T) {
	attrs := IngestAttributes("trade_db_1.csv", "shipments", 5000, 3)
	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, IngestFileKey, "trade_db_1.csv")
	verifyInt64Attribute(t, attrs, IngestRowsKey, 5000)

	if got := IngestAttributes("", "countries", 1, 0); len(got) != 3 {
		t.Errorf("Expected file attribute to be omitted, got %d attributes", len(got))
	}
}

func TestCacheAttributes(t *testing.T) {
	attrs := CacheAttributes("redis", false)
	verifyAttribute(t, attrs, CacheBackendKey, "redis")
	verifyBoolAttribute(t, attrs, CacheHitKey, false)
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("boom"), "store")
	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "store")
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	verifyInt64Attribute(t, attrs, key, int64(expectedValue))
}

func verifyInt64Attribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != expectedValue {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
