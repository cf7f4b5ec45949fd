// Package metrics provides Prometheus metrics for sentiboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatasetLoads counts dataset loads by source and outcome.
	DatasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentiboard",
			Name:      "dataset_loads_total",
			Help:      "Total number of dataset loads",
		},
		[]string{"source", "status"},
	)

	// DatasetLoadDuration measures load plus normalization time.
	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentiboard",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of dataset load and normalization in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// FilterRequests counts filter invocations by category.
	FilterRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentiboard",
			Name:      "filter_requests_total",
			Help:      "Total number of tweet filter invocations",
		},
		[]string{"category"},
	)

	// FilterMatches observes total match counts per filter invocation.
	FilterMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sentiboard",
			Name:      "filter_matches",
			Help:      "Distribution of match counts per filter invocation",
			Buckets:   []float64{0, 1, 5, 20, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	// ImageFailures counts images that could not be resolved.
	ImageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentiboard",
			Name:      "image_failures_total",
			Help:      "Total number of unresolvable image references",
		},
		[]string{"widget"},
	)
)

// RecordLoad records a dataset load.
func RecordLoad(source, status string, duration float64) {
	DatasetLoads.WithLabelValues(source, status).Inc()
	DatasetLoadDuration.WithLabelValues(source).Observe(duration)
}

// RecordFilter records a filter invocation.
func RecordFilter(category string, count int) {
	FilterRequests.WithLabelValues(category).Inc()
	FilterMatches.Observe(float64(count))
}

// RecordImageFailure records an image that failed to resolve.
func RecordImageFailure(widget string) {
	ImageFailures.WithLabelValues(widget).Inc()
}
