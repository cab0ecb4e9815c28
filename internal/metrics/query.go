package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query engine Prometheus metrics.
var (
	AsksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendex",
			Name:      "asks_total",
			Help:      "Total questions answered, by winning strategy",
		},
		[]string{"source", "status"},
	)

	FetchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendex",
			Name:      "fetch_fallback_total",
			Help:      "Structured fetches that degraded, by fallback tier",
		},
		[]string{"tier"}, // "1" / "2"
	)

	RetrievalCandidatesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendex",
			Name:      "retrieval_candidates_skipped_total",
			Help:      "Embedding candidates skipped during vector search",
		},
		[]string{"reason"}, // "empty_vector" / "dim_mismatch" / "zero_norm"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(AsksTotal)
	prometheus.MustRegister(FetchFallbackTotal)
	prometheus.MustRegister(RetrievalCandidatesSkipped)
	queryMetricsRegistered = true
}
