package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments slice-metric runs. A nil registerer leaves the
// collectors unregistered.
type Metrics struct {
	slicePoints   *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	maskedValues  *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		slicePoints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maf",
			Name:      "slice_points_evaluated_total",
			Help:      "Slice points evaluated, by slicer.",
		}, []string{"slicer"}),
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maf",
			Name:      "cache_requests_total",
			Help:      "Computation cache lookups, by result.",
		}, []string{"result"}),
		maskedValues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maf",
			Name:      "metric_values_masked_total",
			Help:      "Metric values masked as bad, by metric.",
		}, []string{"metric"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "maf",
			Name:      "run_duration_seconds",
			Help:      "Wall time of slice-metric runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}
