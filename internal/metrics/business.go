// SPDX-License-Identifier: MIT

// Package metrics exposes the Prometheus collectors of citesnet.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest metrics
	ingestRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_ingest_rows_total",
		Help: "Rows written by the ingest pipeline per table",
	}, []string{"table"}) // table=shipments|countries|vernaculars

	ingestSkippedRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citesnet_ingest_skipped_rows_total",
		Help: "Trade rows skipped because year or quantity could not be parsed",
	})

	ingestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "citesnet_ingest_duration_seconds",
		Help:    "Duration of a full ingest run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	datasetRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citesnet_dataset_records",
		Help: "Number of shipment records currently loaded",
	})

	// Query metrics
	queryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citesnet_query_duration_seconds",
		Help:    "Store query latency by query kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"}) // kind=edges|records|taxa|terms|purposes|sources|summary|countries|vernaculars

	queryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_query_errors_total",
		Help: "Store query failures by query kind",
	}, []string{"kind"})

	// Network metrics
	networkNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citesnet_network_nodes",
		Help: "Node count of the most recently built trade network",
	})

	networkEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citesnet_network_edges",
		Help: "Edge count of the most recently built trade network",
	})

	networkBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_network_builds_total",
		Help: "Trade network builds by centrality measure and outcome",
	}, []string{"centrality", "outcome"}) // outcome=built|empty|too_large|error

	// Cache metrics
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_cache_lookups_total",
		Help: "Result cache lookups by backend and result",
	}, []string{"backend", "result"}) // result=hit|miss

	// Circuit breakers
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "citesnet_circuit_breaker_state",
		Help: "Circuit breaker state per guarded dependency (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	breakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_circuit_breaker_trips_total",
		Help: "Circuit breaker transitions to open by reason",
	}, []string{"name", "reason"}) // reason=threshold_exceeded|half_open_failure

	// Rate limiting
	rateLimitRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_ratelimit_rejections_total",
		Help: "Requests rejected by rate limiting",
	}, []string{"scope"}) // scope=global|ip|http

	// Static files
	staticRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_static_requests_total",
		Help: "Static file requests by result",
	}, []string{"result"}) // result=served|not_modified|not_found|forbidden|error

	// Operational metrics
	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citesnet_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// RecordIngestRows adds n written rows for table.
func RecordIngestRows(table string, n int) {
	ingestRowsTotal.WithLabelValues(table).Add(float64(n))
}

// RecordIngestSkipped adds n skipped trade rows.
func RecordIngestSkipped(n int) { ingestSkippedRowsTotal.Add(float64(n)) }

// ObserveIngestDuration records the duration of an ingest run in seconds.
func ObserveIngestDuration(seconds float64) { ingestDurationSeconds.Observe(seconds) }

// SetDatasetRecords publishes the number of loaded shipment records.
func SetDatasetRecords(n int64) { datasetRecords.Set(float64(n)) }

// ObserveQuery records the latency of a store query and counts failures.
func ObserveQuery(kind string, seconds float64, err error) {
	queryDurationSeconds.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		queryErrorsTotal.WithLabelValues(kind).Inc()
	}
}

// RecordNetwork publishes the size of the latest network and counts the build.
func RecordNetwork(centrality, outcome string, nodes, edges int) {
	networkBuildsTotal.WithLabelValues(centrality, outcome).Inc()
	if outcome == "built" {
		networkNodes.Set(float64(nodes))
		networkEdges.Set(float64(edges))
	}
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(backend, result).Inc()
}

// SetCircuitBreakerState publishes the state of the named breaker.
// Unknown states are reported as closed.
func SetCircuitBreakerState(name, state string) {
	v := 0.0
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	breakerState.WithLabelValues(name).Set(v)
}

// RecordCircuitBreakerTrip counts a breaker opening.
func RecordCircuitBreakerTrip(name, reason string) {
	breakerTripsTotal.WithLabelValues(name, reason).Inc()
}

// IncRateLimitRejection counts a rejected request.
func IncRateLimitRejection(scope string) {
	rateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// RecordConfigReload counts a configuration reload attempt.
func RecordConfigReload(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	configReloadsTotal.WithLabelValues(outcome).Inc()
}

// RecordStaticRequest counts a static file request by result.
func RecordStaticRequest(result string) {
	staticRequestsTotal.WithLabelValues(result).Inc()
}
