package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	BookingsTotal    *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	SlotReleases     prometheus.Counter

	// Notification metrics
	NotificationsCreated prometheus.Counter
	DeliveriesTotal      *prometheus.CounterVec
	DeliveryLatency      prometheus.Histogram
	TaskQueueDepth       prometheus.Gauge
	TasksDropped         *prometheus.CounterVec

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Appointment booking attempts by result",
		}, []string{"result"}),
		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Appointment status transitions by target status and result",
		}, []string{"target", "result"}),
		SlotReleases: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_releases_total",
			Help:      "Time slots returned to available",
		}),

		NotificationsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications persisted",
		}),
		DeliveriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Push delivery attempts by result",
		}, []string{"result"}),
		DeliveryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_delivery_duration_seconds",
			Help:      "Time spent delivering a notification",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		TaskQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_queue_depth",
			Help:      "Background tasks waiting to run",
		}),
		TasksDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_tasks_dropped_total",
			Help:      "Background tasks rejected because the queue was full or closed",
		}, []string{"task"}),

		OutboxEventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		DatabaseOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

// NewUnregistered creates metrics that are not exported anywhere
func NewUnregistered(namespace string) *Metrics {
	return NewMetrics(namespace, prometheus.NewRegistry())
}
