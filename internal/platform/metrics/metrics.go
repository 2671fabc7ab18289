package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	voteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_vote_requests_total",
		Help: "Vote requests received, labelled by outcome",
	}, []string{"status"})

	resultsCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_results_cache_lookups_total",
		Help: "Results cache lookups, labelled hit/miss/bypass",
	}, []string{"outcome"})

	resultsComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poll_results_compute_duration_seconds",
		Help:    "Time to recompute the overall results view",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveVoteRequest(status string) {
	voteRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveCacheLookup(outcome string) {
	resultsCacheLookups.WithLabelValues(outcome).Inc()
}

func ObserveResultsCompute(seconds float64) {
	resultsComputeDuration.Observe(seconds)
}
