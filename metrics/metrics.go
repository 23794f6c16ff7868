// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuditWriteFailures counts audit rows that could not be written.
	AuditWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minihospital_audit_write_failures_total",
		Help: "Audit log writes that failed, by action",
	}, []string{"action"})

	// RecordsAnonymized counts patients processed by anonymization passes.
	RecordsAnonymized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minihospital_records_anonymized_total",
		Help: "Patient records processed by anonymization",
	})

	// RetentionDeletions counts patients removed by the retention policy.
	RetentionDeletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minihospital_retention_deletions_total",
		Help: "Patient records deleted by the retention policy",
	})

	// DecryptViews counts successful original-data views.
	DecryptViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minihospital_decrypt_views_total",
		Help: "Original patient data views",
	})

	// AccessDenials counts rejected access checks by reason.
	AccessDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minihospital_access_denials_total",
		Help: "Rejected logins, role checks and re-verifications, by reason",
	}, []string{"reason"})

	// HTTPRequests counts served requests by route, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minihospital_http_requests_total",
		Help: "HTTP requests served, by route, method and status",
	}, []string{"route", "method", "status"})

	// HTTPDuration tracks request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minihospital_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
