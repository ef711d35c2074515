package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "search_requests_total",
			Help:      "Total number of catalog searches",
		},
		[]string{"kind", "outcome"}, // kind: filtered/text, outcome: ok/empty/error
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Name:      "search_duration_seconds",
			Help:      "Catalog search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)

	SearchShortCircuitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "search_short_circuits_total",
			Help:      "Searches answered empty without a storage query",
		},
		[]string{"reason"},
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Name:      "search_results_returned",
			Help:      "Number of projects returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000},
		},
		[]string{"kind"},
	)

	StoreBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "marketplace",
			Name:      "store_breaker_state",
			Help:      "Storage circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchShortCircuitsTotal)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(StoreBreakerState)
	searchMetricsRegistered = true
}
