package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Jobs
	JobsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldservice_jobs_created_total",
			Help: "Total number of jobs created",
		},
	)
	JobStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_job_status_changes_total",
			Help: "Number of accepted job status transitions",
		},
		[]string{"from", "to"},
	)
	JobDurationMinutes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldservice_job_duration_minutes",
			Help:    "Histogram of actual job durations in minutes",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10), // 5m..~42h
		},
	)

	// Workflow validation
	TransitionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_transition_rejections_total",
			Help: "Rejected transition requests by rejection kind",
		},
		[]string{"kind"},
	)
	StatusConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldservice_status_conflicts_total",
			Help: "Transitions lost to a concurrent status update",
		},
	)

	// Audit trail
	HistoryAppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldservice_history_append_failures_total",
			Help: "Failed status history inserts",
		},
	)

	// Storage ops
	DBOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_db_ops_total",
			Help: "Database operations performed",
		},
		[]string{"op"}, // op: get|put|delete|list|count
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldservice_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		JobsCreated,
		JobStatusChanges,
		JobDurationMinutes,
		TransitionRejections,
		StatusConflicts,
		HistoryAppendFailures,
		DBOps,
		Errors,
	)
}

func IncJobsCreated() {
	JobsCreated.Inc()
}

func IncJobStatusChange(from, to string) {
	JobStatusChanges.WithLabelValues(from, to).Inc()
}

func ObserveJobDuration(minutes int) {
	JobDurationMinutes.Observe(float64(minutes))
}

func IncTransitionRejection(kind string) {
	TransitionRejections.WithLabelValues(kind).Inc()
}

func IncStatusConflict() {
	StatusConflicts.Inc()
}

func IncHistoryAppendFailure() {
	HistoryAppendFailures.Inc()
}

func IncDBOp(op string) {
	DBOps.WithLabelValues(op).Inc()
}

func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
