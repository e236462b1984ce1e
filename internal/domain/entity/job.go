package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusOnHold     JobStatus = "on_hold"
	StatusCompleted  JobStatus = "completed"
	StatusCancelled  JobStatus = "cancelled"
)

// AllStatuses lists every valid job status.
var AllStatuses = []JobStatus{
	StatusPending,
	StatusInProgress,
	StatusOnHold,
	StatusCompleted,
	StatusCancelled,
}

// ParseJobStatus converts a raw string into a JobStatus. An unknown literal
// is a distinct error from an illegal transition.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusPending, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

type Job struct {
	ID                string     `json:"id" bson:"id"`
	Title             string     `json:"title" bson:"title"`
	Status            JobStatus  `json:"status" bson:"status"`
	AssignedTo        *string    `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	EstimatedDuration int        `json:"estimated_duration" bson:"estimated_duration"` // minutes
	ActualDuration    *int       `json:"actual_duration,omitempty" bson:"actual_duration,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" bson:"updated_at"`
}

func NewJob(title string, assignedTo *string, estimatedDuration int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:                uuid.New().String(),
		Title:             title,
		Status:            StatusPending,
		AssignedTo:        assignedTo,
		EstimatedDuration: estimatedDuration,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsAssignedTo reports whether the job is assigned to the given user.
func (j *Job) IsAssignedTo(userID string) bool {
	return j.AssignedTo != nil && *j.AssignedTo == userID
}
