// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	FitScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planner_fit_score",
			Help:    "Distribution of computed fit scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	PlannerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_operations_total",
			Help: "Planner operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_profile_cache_lookups_total",
			Help: "Student profile cache lookups by result",
		},
		[]string{"result"},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadline_reminders_sent_total",
			Help: "Deadline reminders delivered per channel",
		},
		[]string{"channel", "urgency"},
	)

	HTTPRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "api_request_duration_seconds",
			Help: "HTTP API latency by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome labels for PlannerOperations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveOperation records one planner operation.
func ObserveOperation(operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	PlannerOperations.WithLabelValues(operation, outcome).Inc()
}
