// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the collector.
type Metrics struct {
	// Fetch metrics
	WindowsFetched prometheus.Counter
	RowsFetched    prometheus.Counter
	FetchErrors    prometheus.Counter
	DiscoveryRuns  prometheus.Counter
	SymbolsRanked  prometheus.Gauge

	// Pipeline metrics
	PairsProcessed prometheus.Counter
	PairsSkipped   prometheus.Counter
	PairsFailed    prometheus.Counter
	RowsPersisted  prometheus.Counter
	PairDuration   prometheus.Histogram

	// Rate-limit metrics
	TokensAvailable prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "binance_data_lab"
	}

	return &Metrics{
		WindowsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_fetched_total",
			Help:      "Number of kline request windows fetched.",
		}),
		RowsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_fetched_total",
			Help:      "Number of raw kline rows fetched from the exchange.",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Number of failed fetch batches.",
		}),
		DiscoveryRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_runs_total",
			Help:      "Number of symbol-universe discovery runs.",
		}),
		SymbolsRanked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "symbols_ranked",
			Help:      "Symbols in the last discovered liquidity ranking.",
		}),
		PairsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_processed_total",
			Help:      "Number of (symbol, interval) pairs processed.",
		}),
		PairsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_skipped_total",
			Help:      "Number of pairs skipped after an error (continue-on-error mode).",
		}),
		PairsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_failed_total",
			Help:      "Number of pairs that ended a run with an error.",
		}),
		RowsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_persisted_total",
			Help:      "Number of new kline rows merged into storage.",
		}),
		PairDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pair_duration_seconds",
			Help:      "Wall time to fetch and persist one (symbol, interval) pair.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TokensAvailable: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_tokens",
			Help:      "Tokens currently available in the shared request bucket.",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
