// Package metrics provides Prometheus metrics for the Cardrail service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestBatchesTotal tracks ingest batches by marketplace and outcome
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardrail",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total number of ingest batches by marketplace and status",
		},
		[]string{"marketplace", "status"},
	)

	// IngestItemsTotal tracks individual items accepted or skipped during ingest
	IngestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardrail",
			Subsystem: "ingest",
			Name:      "items_total",
			Help:      "Total number of ingested items by marketplace and outcome",
		},
		[]string{"marketplace", "outcome"},
	)

	// IngestDuration tracks ingest batch duration in seconds
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardrail",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Duration of ingest batches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"marketplace"},
	)

	// TitleParseConfidence tracks the distribution of title parse confidence scores
	TitleParseConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cardrail",
			Subsystem: "normalizer",
			Name:      "title_parse_confidence",
			Help:      "Distribution of title parse confidence scores",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// ScrapeRequestsTotal tracks outbound scraper requests
	ScrapeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardrail",
			Subsystem: "scraper",
			Name:      "requests_total",
			Help:      "Total number of scraper requests by marketplace and status code",
		},
		[]string{"marketplace", "status_code"},
	)

	// ScrapeRequestDuration tracks scraper request duration
	ScrapeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardrail",
			Subsystem: "scraper",
			Name:      "request_duration_seconds",
			Help:      "Duration of scraper requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"marketplace"},
	)

	// ScheduledRunsTotal tracks scheduler-driven tracked query runs
	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardrail",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Total number of scheduled tracked query runs by status",
		},
		[]string{"marketplace", "status"},
	)

	// EventsPublishedTotal tracks events published to Kafka
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardrail",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by type and status",
		},
		[]string{"event_type", "status"},
	)
)
