package entity

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is an immutable audit record of one accepted status
// transition. Entries are append-only: for a given job they are strictly
// ordered by ChangedAt and the ToStatus of entry n equals the FromStatus of
// entry n+1.
type StatusHistoryEntry struct {
	ID               string     `json:"id" bson:"id"`
	JobID            string     `json:"job_id" bson:"job_id"`
	FromStatus       *JobStatus `json:"from_status,omitempty" bson:"from_status,omitempty"` // nil on the creation entry
	ToStatus         JobStatus  `json:"to_status" bson:"to_status"`
	ChangedBy        string     `json:"changed_by" bson:"changed_by"`
	Comment          *string    `json:"comment,omitempty" bson:"comment,omitempty"`
	DurationInStatus *int       `json:"duration_in_status,omitempty" bson:"duration_in_status,omitempty"` // minutes spent in FromStatus
	ChangedAt        time.Time  `json:"changed_at" bson:"changed_at"`
}

func NewStatusHistoryEntry(jobID string, from *JobStatus, to JobStatus, changedBy string, comment *string, durationInStatus *int, changedAt time.Time) *StatusHistoryEntry {
	return &StatusHistoryEntry{
		ID:               uuid.New().String(),
		JobID:            jobID,
		FromStatus:       from,
		ToStatus:         to,
		ChangedBy:        changedBy,
		Comment:          comment,
		DurationInStatus: durationInStatus,
		ChangedAt:        changedAt,
	}
}
