// Package metrics defines Prometheus metrics for the audit engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aptaudit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptaudit_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptaudit_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	AuditsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_audits_started_total",
			Help: "Audits started",
		},
	)

	AuditsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_audits_completed_total",
			Help: "Audits completed",
		},
	)

	AuditsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_audits_cancelled_total",
			Help: "Audits cancelled",
		},
	)

	AnswersRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptaudit_answers_total",
			Help: "Answers recorded by answer type",
		},
		[]string{"answer_type"},
	)

	IncidencesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptaudit_incidences_created_total",
			Help: "Incidences raised by auto-incidence rules, by severity",
		},
		[]string{"severity"},
	)

	FollowUpsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_followups_created_total",
			Help: "Follow-up items spawned by follow-up rules",
		},
	)

	ActivityQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptaudit_activity_queue_depth",
			Help: "Current activity log queue depth",
		},
	)

	PhotoBytesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_photo_bytes_stored_total",
			Help: "Bytes written to the photo store",
		},
	)

	NotificationsForwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_notifications_forwarded_total",
			Help: "Audit change notifications relayed to WebSocket watchers",
		},
	)

	NotifyReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptaudit_notify_reconnects_total",
			Help: "LISTEN connection losses retried by the notify bridge",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptaudit_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AuditsStarted, AuditsCompleted, AuditsCancelled,
		AnswersRecorded, IncidencesCreated, FollowUpsCreated,
		ActivityQueueDepth, PhotoBytesStored, WSConnections,
		NotificationsForwarded, NotifyReconnects,
	)
}
