// Package metrics exposes Prometheus collectors for the radar service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal          *prometheus.CounterVec
	fetchCallsTotal    *prometheus.CounterVec
	postsAdmittedTotal prometheus.Counter
	postsRejectedTotal *prometheus.CounterVec
	storeWritesTotal   *prometheus.CounterVec
	rateWaitSeconds    prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_runs_total",
				Help: "Total number of monitoring runs, labeled by final status.",
			},
			[]string{"status"},
		)

		fetchCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_fetch_calls_total",
				Help: "Total upstream listing calls, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		postsAdmittedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "radar_posts_admitted_total",
				Help: "Total posts that passed the admission pipeline.",
			},
		)

		postsRejectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_posts_rejected_total",
				Help: "Total posts rejected, labeled by rejection reason.",
			},
			[]string{"reason"},
		)

		storeWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "radar_store_writes_total",
				Help: "Total store write outcomes, labeled by result.",
			},
			[]string{"result"},
		)

		rateWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "radar_rate_wait_seconds",
				Help:    "Histogram of waits imposed by the rate policy.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun increments the run counter for the given status.
func ObserveRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// ObserveFetch increments the fetch-call counter for the given outcome.
func ObserveFetch(outcome string) {
	fetchCallsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAdmitted increments the admitted-posts counter.
func ObserveAdmitted() {
	postsAdmittedTotal.Inc()
}

// ObserveRejected increments the rejected-posts counter for a reason.
func ObserveRejected(reason string) {
	postsRejectedTotal.WithLabelValues(reason).Inc()
}

// ObserveStoreWrite increments the store write counter for a result
// (inserted, duplicate, rejected, failed).
func ObserveStoreWrite(result string, count int) {
	if count > 0 {
		storeWritesTotal.WithLabelValues(result).Add(float64(count))
	}
}

// ObserveRateWait records the duration of a rate policy wait.
func ObserveRateWait(duration time.Duration) {
	rateWaitSeconds.Observe(duration.Seconds())
}
