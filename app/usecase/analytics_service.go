package usecase

import (
	"context"
	"fmt"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
)

type AnalyticsUsecase interface {
	Analyze(ctx context.Context, jobID string) (*entity.WorkflowAnalytics, error)
}

var _ AnalyticsUsecase = (*AnalyticsService)(nil)

// AnalyticsService computes duration breakdowns from the recorded history.
// Read-only and idempotent; safe to call concurrently with writers, a
// mid-append trail just yields a slightly stale view.
type AnalyticsService struct {
	jobs    repository.JobRepository
	history repository.HistoryRepository
}

func NewAnalyticsService(jobs repository.JobRepository, history repository.HistoryRepository) *AnalyticsService {
	return &AnalyticsService{jobs: jobs, history: history}
}

func (s *AnalyticsService) Analyze(ctx context.Context, jobID string) (*entity.WorkflowAnalytics, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	entries, err := s.history.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list history for job %s: %w", jobID, err)
	}

	total := 0
	byStatus := make(map[entity.JobStatus]int)
	for _, e := range entries {
		if e.DurationInStatus == nil {
			continue
		}
		total += *e.DurationInStatus
		if e.FromStatus != nil {
			byStatus[*e.FromStatus] += *e.DurationInStatus
		}
	}

	return &entity.WorkflowAnalytics{
		JobID:             job.ID,
		TotalMinutes:      total,
		MinutesByStatus:   byStatus,
		EstimatedDuration: job.EstimatedDuration,
		ActualDuration:    job.ActualDuration,
		Timeline: entity.WorkflowTimeline{
			CreatedAt:   job.CreatedAt,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
		},
	}, nil
}
