package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/infrastructure/metrics"
)

type JobUsecase interface {
	CreateJob(ctx context.Context, title string, assignedTo *string, estimatedDuration int, creatorID string) (*entity.Job, error)
	GetJob(ctx context.Context, id string) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]*entity.Job, error)
	ListJobsByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error)
	StatusSummary(ctx context.Context) (map[entity.JobStatus]int, error)
	AssignJob(ctx context.Context, jobID, technicianID string) error
	GetHistory(ctx context.Context, jobID string) ([]*entity.StatusHistoryEntry, error)
}

var _ JobUsecase = (*JobService)(nil)

// JobService covers the CRUD-ish surface around the workflow engine: job
// creation (always pending), reads, assignment and the history view.
type JobService struct {
	jobs     repository.JobRepository
	users    repository.UserRepository
	history  repository.HistoryRepository
	recorder *HistoryRecorder
	logger   *slog.Logger
}

func NewJobService(
	jobs repository.JobRepository,
	users repository.UserRepository,
	history repository.HistoryRepository,
	recorder *HistoryRecorder,
	logger *slog.Logger,
) *JobService {
	return &JobService{
		jobs:     jobs,
		users:    users,
		history:  history,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *JobService) CreateJob(ctx context.Context, title string, assignedTo *string, estimatedDuration int, creatorID string) (*entity.Job, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if estimatedDuration <= 0 {
		return nil, fmt.Errorf("estimated duration must be a positive number of minutes")
	}
	if assignedTo != nil {
		if _, err := s.users.GetByID(ctx, *assignedTo); err != nil {
			return nil, fmt.Errorf("resolve assignee %s: %w", *assignedTo, err)
		}
	}

	job := entity.NewJob(title, assignedTo, estimatedDuration)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	metrics.IncJobsCreated()

	// Creation entry anchors the history chain: nil from-status, nil
	// duration, so every later entry's from equals its predecessor's to.
	entry := entity.NewStatusHistoryEntry(job.ID, nil, entity.StatusPending, creatorID, nil, nil, job.CreatedAt)
	if err := s.recorder.Record(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("job created", "job_id", job.ID, "title", title, "created_by", creatorID)
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context) ([]*entity.Job, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobService) ListJobsByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	jobs, err := s.jobs.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list jobs with status %s: %w", status, err)
	}
	return jobs, nil
}

// StatusSummary returns the number of jobs in each status, including zeroes.
func (s *JobService) StatusSummary(ctx context.Context) (map[entity.JobStatus]int, error) {
	summary := make(map[entity.JobStatus]int, len(entity.AllStatuses))
	for _, status := range entity.AllStatuses {
		n, err := s.jobs.CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("count jobs with status %s: %w", status, err)
		}
		summary[status] = n
	}
	return summary, nil
}

func (s *JobService) AssignJob(ctx context.Context, jobID, technicianID string) error {
	if _, err := s.users.GetByID(ctx, technicianID); err != nil {
		return fmt.Errorf("resolve technician %s: %w", technicianID, err)
	}
	if err := s.jobs.UpdateAssignment(ctx, jobID, technicianID); err != nil {
		return fmt.Errorf("assign job %s to %s: %w", jobID, technicianID, err)
	}
	s.logger.Info("job assigned", "job_id", jobID, "technician", technicianID)
	return nil
}

func (s *JobService) GetHistory(ctx context.Context, jobID string) ([]*entity.StatusHistoryEntry, error) {
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	entries, err := s.history.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list history for job %s: %w", jobID, err)
	}
	return entries, nil
}
