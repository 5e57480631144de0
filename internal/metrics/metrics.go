// Package metrics provides Prometheus instrumentation for the matching
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the matching pipeline's Prometheus metrics.
type Collector struct {
	registry           *prometheus.Registry
	lendersEvaluated   *prometheus.CounterVec
	batchesCompleted   prometheus.Counter
	batchesFailed      prometheus.Counter
	evaluationDuration prometheus.Histogram
	fitScores          prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		lendersEvaluated: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "lendmatch_lenders_evaluated_total",
			Help: "Per-lender policy evaluations by outcome",
		}, []string{"outcome"}),
		batchesCompleted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "lendmatch_batches_completed_total",
			Help: "Match batches that reached the complete state",
		}),
		batchesFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "lendmatch_batches_failed_total",
			Help: "Match batches that failed before evaluation",
		}),
		evaluationDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "lendmatch_evaluation_duration_seconds",
			Help:    "Time to evaluate and persist one lender verdict",
			Buckets: prometheus.DefBuckets,
		}),
		fitScores: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "lendmatch_fit_score_distribution",
			Help:    "Distribution of fit scores among approved lenders",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),
	}
}

// Registry exposes the underlying registry for an HTTP handler or test
// scraping.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordEvaluation records one lender verdict.
func (c *Collector) RecordEvaluation(outcome string, fitScore *int, duration time.Duration) {
	c.lendersEvaluated.WithLabelValues(outcome).Inc()
	c.evaluationDuration.Observe(duration.Seconds())
	if fitScore != nil {
		c.fitScores.Observe(float64(*fitScore))
	}
}

// RecordBatchComplete records a batch reaching the complete state.
func (c *Collector) RecordBatchComplete() {
	c.batchesCompleted.Inc()
}

// RecordBatchFailed records a batch failing validation before evaluation.
func (c *Collector) RecordBatchFailed() {
	c.batchesFailed.Inc()
}
