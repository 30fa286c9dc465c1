package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics contains Prometheus metrics for the ingestion consumer.
type ConsumerMetrics struct {
	MessagesTotal      *prometheus.CounterVec
	ProcessingFailures *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
}

// NewConsumerMetrics creates and registers ingestion consumer metrics.
func NewConsumerMetrics(namespace string) *ConsumerMetrics {
	m := &ConsumerMetrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_total",
				Help:      "Total number of messages consumed",
			},
			[]string{"queue", "status"}, // status: success, dropped, error
		),
		ProcessingFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "processing_failures_total",
				Help:      "Total number of message processing failures",
			},
			[]string{"queue", "reason"},
		),
		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "processing_duration_seconds",
				Help:      "Duration of message processing",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
	}

	MustRegister(
		m.MessagesTotal,
		m.ProcessingFailures,
		m.ProcessingDuration,
	)

	return m
}
