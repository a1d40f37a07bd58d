package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	// Notification metrics
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New registers the application metrics with the default registry.
func New(namespace string) *Metrics {
	return NewWith(namespace, prometheus.DefaultRegisterer)
}

// NewWith registers the application metrics with the given registerer.
func NewWith(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Number of outbox events published successfully",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Number of outbox events that exhausted retries",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Duration of outbox batch processing",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Number of notification emails dispatched",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Number of notification emails that failed to send",
		}),
	}
}
