package entity

import "time"

// WorkflowAnalytics is the read-only duration breakdown computed from a
// job's accumulated status history.
type WorkflowAnalytics struct {
	JobID             string            `json:"job_id"`
	TotalMinutes      int               `json:"total_minutes"`
	MinutesByStatus   map[JobStatus]int `json:"minutes_by_status"`
	EstimatedDuration int               `json:"estimated_duration"`
	ActualDuration    *int              `json:"actual_duration,omitempty"`
	Timeline          WorkflowTimeline  `json:"timeline"`
}

type WorkflowTimeline struct {
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StatusUpdate is the realtime event broadcast after an accepted transition.
type StatusUpdate struct {
	JobID      string     `json:"job_id"`
	FromStatus *JobStatus `json:"from_status,omitempty"`
	ToStatus   JobStatus  `json:"to_status"`
	ChangedBy  string     `json:"changed_by"`
	ChangedAt  time.Time  `json:"changed_at"`
}
