package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests     *prometheus.CounterVec
	emptyResults *prometheus.CounterVec
	duration     prometheus.Histogram
}

// newMetrics creates the search collectors. A nil registerer leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carefind",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Searches by result cache outcome.",
		}, []string{"cache"}),
		emptyResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carefind",
			Subsystem: "search",
			Name:      "empty_results_total",
			Help:      "Searches that found nothing, by analytics event.",
		}, []string{"event"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carefind",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Time spent running uncached searches.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
