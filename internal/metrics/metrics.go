// Package metrics defines the Prometheus collectors exported by the API.
// Collectors register with the default registry through promauto; the
// /metrics route serves them via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "woodshop"

// HTTPRequestsTotal counts handled requests.
// Labels: method, route (gin full path), status.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency by route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// AuthFailuresTotal counts rejected bearer tokens.
// Label:
//   - reason: invalid_token, expired, revoked, inactive_user or store_unavailable
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication attempts, by reason.",
	},
	[]string{"reason"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: success or failure
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuditEntriesTotal counts change recorder writes.
// Labels:
//   - operation: CREATE, UPDATE or DELETE
//   - result: written or failed
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_total",
		Help:      "Total number of audit entries recorded, by operation and result.",
	},
	[]string{"operation", "result"},
)

// SessionsRevokedTotal counts sessions deactivated.
// Label:
//   - cause: logout, user_deleted, user_deactivated or expired
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions deactivated, by cause.",
	},
	[]string{"cause"},
)

// OrderStatusesRefreshedTotal counts orders whose derived status was persisted.
var OrderStatusesRefreshedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_statuses_refreshed_total",
		Help:      "Total number of orders whose derived status changed.",
	},
	[]string{"status"},
)

// JobRunsTotal counts scheduled job executions.
// Labels:
//   - job: job name
//   - result: ok or failed
var JobRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Total number of scheduled job runs, by job and result.",
	},
	[]string{"job", "result"},
)
