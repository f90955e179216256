// Package metrics provides Prometheus metrics for fern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	// RunsTotal tracks resolution runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "runs_total",
			Help:      "Total number of resolution runs by status",
		},
		[]string{"status"},
	)

	// RunDuration tracks resolution run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "run_duration_seconds",
			Help:      "Duration of resolution runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// RecordsResolved tracks resolved records by match status
	RecordsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "records_resolved_total",
			Help:      "Total number of resolved records by match status",
		},
		[]string{"match_status"},
	)

	// RecordsSkipped tracks input records rejected at ingestion
	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "records_skipped_total",
			Help:      "Total number of input records skipped by dataset",
		},
		[]string{"source"},
	)

	// Comparisons tracks evaluated candidate pairs
	Comparisons = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "comparisons_total",
			Help:      "Total number of evaluated candidate pairs",
		},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka batch publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka batch publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// RecordRun records a completed resolution run
func RecordRun(stats models.RunStats, durationSeconds float64) {
	RunsTotal.WithLabelValues(StatusSuccess).Inc()
	RunDuration.Observe(durationSeconds)
	RecordsResolved.WithLabelValues(string(models.StatusMatched)).Add(float64(stats.Matched))
	RecordsResolved.WithLabelValues(string(models.StatusUnmatchedA)).Add(float64(stats.UnmatchedA))
	RecordsResolved.WithLabelValues(string(models.StatusUnmatchedB)).Add(float64(stats.UnmatchedB))
	RecordsSkipped.WithLabelValues(string(models.SourceA)).Add(float64(stats.SkippedA))
	RecordsSkipped.WithLabelValues(string(models.SourceB)).Add(float64(stats.SkippedB))
	Comparisons.Add(float64(stats.Comparisons))
}

// RecordRunFailure records a run that returned an error
func RecordRunFailure(durationSeconds float64) {
	RunsTotal.WithLabelValues(StatusFailed).Inc()
	RunDuration.Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka batch publish of count messages
func RecordKafkaPublish(topic, status string, count int, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Add(float64(count))
	KafkaPublishDuration.Observe(durationSeconds)
}
