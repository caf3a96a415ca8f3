package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and catalog Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Ranking requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	ScoringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_pass_duration_seconds",
			Help:      "Duration of one scoring pass over a candidate pool",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	CandidatePoolSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_pool_size",
			Help:      "Number of candidates scored per request",
			Buckets:   []float64{0, 10, 50, 100, 250, 500},
		},
		[]string{"operation"},
	)

	HistoryWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_write_failures_total",
			Help:      "Search history records that could not be persisted",
		},
	)

	DegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_total",
			Help:      "Operations that continued without an upstream result",
		},
		[]string{"operation", "reason"},
	)

	TendersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenders_expired_total",
			Help:      "Tenders marked expired by the expiry job",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(CandidatePoolSize)
	prometheus.MustRegister(HistoryWriteFailuresTotal)
	prometheus.MustRegister(DegradedTotal)
	prometheus.MustRegister(TendersExpiredTotal)
	searchMetricsRegistered = true
}
