// Package metrics exposes the pipeline's Prometheus counters. Counters
// are registered on the default registry and served by the router's
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheReads counts cache reads by tier ("day", "shard") and
	// result ("hit", "miss").
	CacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregator_cache_reads_total",
		Help: "Cache reads by tier and result.",
	}, []string{"tier", "result"})

	// SourceFetches counts upstream fetches by outcome
	// ("ok", "empty", "unreachable").
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregator_source_fetch_total",
		Help: "Upstream source fetches by outcome.",
	}, []string{"outcome"})

	// EnrichResults counts venue enrichment units by result
	// ("enriched", "minimal").
	EnrichResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregator_enrich_total",
		Help: "Venue enrichment units by result.",
	}, []string{"result"})
)
