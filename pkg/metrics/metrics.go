// Package metrics provides observability for LazyVec using Prometheus
// metrics. It tracks the code paths that matter for a lazy columnar
// wrapper: how often vectors materialize, how often the zero-copy fast
// path is taken, and how much data moves through region copies.
//
// # Basic Usage
//
//	// Record a materialization
//	metrics.Materializations.WithLabelValues("float64").Inc()
//
//	// Record a zero-copy hit
//	metrics.ZeroCopyHits.WithLabelValues("int32").Inc()
//
// Metrics are registered automatically through promauto and are safe for
// concurrent use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VectorsCreated counts lazy vectors produced by the dispatch layer,
	// labeled by variant kind.
	VectorsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_vectors_created_total",
			Help: "Total number of lazy vectors created, by variant",
		},
		[]string{"kind"},
	)

	// DispatchDeclined counts chunked arrays the dispatch layer refused to
	// wrap, labeled by the source element type.
	DispatchDeclined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_dispatch_declined_total",
			Help: "Total number of chunked arrays declined by dispatch",
		},
		[]string{"type"},
	)

	// Materializations counts cache populations, by variant. A vector
	// materializes at most once, so this also counts materialized vectors.
	Materializations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_materializations_total",
			Help: "Total number of vector materializations, by variant",
		},
		[]string{"kind"},
	)

	// ZeroCopyHits counts raw-value requests satisfied without any copy.
	ZeroCopyHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_zero_copy_hits_total",
			Help: "Total number of zero-copy value accesses, by variant",
		},
		[]string{"kind"},
	)

	// RegionCopies counts partial-materialization region copies served
	// directly from chunk buffers (not from the cache).
	RegionCopies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_region_copies_total",
			Help: "Total number of region copies served from chunks",
		},
		[]string{"kind"},
	)

	// RegionElements counts elements moved by region copies.
	RegionElements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_region_elements_total",
			Help: "Total number of elements copied by region copies",
		},
		[]string{"kind"},
	)

	// NulsStripped counts string values that had embedded nul bytes
	// removed during conversion.
	NulsStripped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lazyvec_nuls_stripped_total",
			Help: "Total number of string values with embedded nuls stripped",
		},
	)

	// Aggregates counts direct aggregate computations over chunked
	// sources, labeled by operation.
	Aggregates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvec_aggregates_total",
			Help: "Total number of direct aggregate computations",
		},
		[]string{"op"},
	)

	// MaterializedElements tracks the size distribution of materialized
	// representations.
	MaterializedElements = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lazyvec_materialized_elements",
			Help:    "Number of elements per materialization",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)
)
