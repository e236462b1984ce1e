package repository

import (
	"context"
	"errors"
	"time"

	"fieldservice/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a record does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict is returned when a conditional status update matches
	// no row because the job's status changed under a concurrent request.
	ErrStatusConflict = errors.New("job status changed concurrently")
)

// StatusMutation is the side-effect bundle an accepted transition applies to
// the job row. The update is conditional on the status the validator saw.
type StatusMutation struct {
	Status         entity.JobStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ActualDuration *int
}

// JobRepository defines storage access for jobs.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, id string) (*entity.Job, error)
	List(ctx context.Context) ([]*entity.Job, error)
	ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error)
	UpdateAssignment(ctx context.Context, id string, assignedTo string) error
	// ApplyTransition atomically updates the job's status and timestamps,
	// conditional on the status still being expected. Returns
	// ErrStatusConflict when the job exists but its status moved on.
	ApplyTransition(ctx context.Context, id string, expected entity.JobStatus, mut StatusMutation) error
	CountByStatus(ctx context.Context, status entity.JobStatus) (int, error)
}
