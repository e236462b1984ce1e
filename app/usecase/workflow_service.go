package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/infrastructure/metrics"
	"fieldservice/internal/workflow"
)

// Notifier receives accepted status changes for realtime fan-out. A nil
// notifier is valid.
type Notifier interface {
	NotifyStatusChange(update entity.StatusUpdate)
}

// StatusChangeOutcome is the discriminated result of one status change
// request. Rejection is set when the workflow refused the request; NoOp when
// the requested status equals the current one; otherwise Job carries the
// mutated row and Entry the recorded history entry.
type StatusChangeOutcome struct {
	Job       *entity.Job
	Entry     *entity.StatusHistoryEntry
	NoOp      bool
	Rejection *workflow.Rejection
}

type WorkflowUsecase interface {
	ChangeStatus(ctx context.Context, jobID, actorID string, target entity.JobStatus, comment string) (*StatusChangeOutcome, error)
	AllowedTransitions(ctx context.Context, jobID, actorID string) ([]entity.JobStatus, error)
}

var _ WorkflowUsecase = (*WorkflowService)(nil)

// WorkflowService orchestrates one transition request end to end: load job
// and actor, validate with the pure engine, apply the conditional mutation,
// record history and notify. All I/O stays here; the engine stays pure.
type WorkflowService struct {
	jobs      repository.JobRepository
	users     repository.UserRepository
	history   repository.HistoryRepository
	recorder  *HistoryRecorder
	validator *workflow.Validator
	notifier  Notifier
	logger    *slog.Logger
	clock     func() time.Time
}

func NewWorkflowService(
	jobs repository.JobRepository,
	users repository.UserRepository,
	history repository.HistoryRepository,
	recorder *HistoryRecorder,
	validator *workflow.Validator,
	notifier Notifier,
	logger *slog.Logger,
) *WorkflowService {
	return &WorkflowService{
		jobs:      jobs,
		users:     users,
		history:   history,
		recorder:  recorder,
		validator: validator,
		notifier:  notifier,
		logger:    logger,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service time source; tests use this.
func (s *WorkflowService) WithClock(clock func() time.Time) *WorkflowService {
	s.clock = clock
	return s
}

func (s *WorkflowService) ChangeStatus(ctx context.Context, jobID, actorID string, target entity.JobStatus, comment string) (*StatusChangeOutcome, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	// The role is re-resolved from storage; the caller's claim is never
	// trusted.
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor %s: %w", actorID, err)
	}

	res := s.validator.Validate(workflow.TransitionRequest{
		Job:     job,
		Target:  target,
		Actor:   actor,
		Comment: comment,
	})

	if !res.Accepted() {
		metrics.IncTransitionRejection(string(res.Rejection.Kind))
		s.logger.Info("transition rejected",
			"job_id", jobID, "from", job.Status, "to", target,
			"actor", actorID, "kind", res.Rejection.Kind)
		return &StatusChangeOutcome{Job: job, Rejection: res.Rejection}, nil
	}
	if res.NoOp {
		return &StatusChangeOutcome{Job: job, NoOp: true}, nil
	}

	wctx := res.Context
	from := job.Status

	// Conditional on the status the validator saw: a concurrent transition
	// surfaces as ErrStatusConflict instead of a silent lost update.
	err = s.jobs.ApplyTransition(ctx, job.ID, from, repository.StatusMutation{
		Status:         wctx.NewStatus,
		StartedAt:      wctx.StartedAt,
		CompletedAt:    wctx.CompletedAt,
		ActualDuration: wctx.ActualDuration,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			metrics.IncStatusConflict()
		}
		return nil, fmt.Errorf("apply transition %s -> %s on job %s: %w", from, target, jobID, err)
	}

	now := s.clock()
	applyMutation(job, wctx, now)

	entry := entity.NewStatusHistoryEntry(
		job.ID, &from, wctx.NewStatus, actor.ID,
		commentPtr(comment), s.durationInPriorStatus(ctx, job, now), now,
	)
	if err := s.recorder.Record(ctx, entry); err != nil {
		// Fail-closed audit mode: the mutation persisted but the caller must
		// know the trail is incomplete.
		return nil, err
	}

	metrics.IncJobStatusChange(string(from), string(wctx.NewStatus))
	if wctx.ActualDuration != nil {
		metrics.ObserveJobDuration(*wctx.ActualDuration)
	}

	if s.notifier != nil {
		s.notifier.NotifyStatusChange(entity.StatusUpdate{
			JobID:      job.ID,
			FromStatus: &from,
			ToStatus:   wctx.NewStatus,
			ChangedBy:  actor.ID,
			ChangedAt:  now,
		})
	}

	s.logger.Info("job status changed",
		"job_id", job.ID, "from", from, "to", wctx.NewStatus, "actor", actor.ID)

	return &StatusChangeOutcome{Job: job, Entry: entry}, nil
}

// AllowedTransitions returns the statuses the actor can actually reach from
// the job's current status.
func (s *WorkflowService) AllowedTransitions(ctx context.Context, jobID, actorID string) ([]entity.JobStatus, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor %s: %w", actorID, err)
	}
	return s.validator.AllowedTargetsFor(job.Status, actor.Role), nil
}

// durationInPriorStatus computes whole minutes spent in the status being
// left, measured from the previous history entry (or job creation when the
// trail is empty).
func (s *WorkflowService) durationInPriorStatus(ctx context.Context, job *entity.Job, now time.Time) *int {
	since := job.CreatedAt
	last, err := s.history.LastByJob(ctx, job.ID)
	if err != nil {
		s.logger.Warn("read last history entry failed", "job_id", job.ID, "err", err)
		return nil
	}
	if last != nil {
		since = last.ChangedAt
	}
	minutes := workflow.RoundMinutes(now.Sub(since))
	return &minutes
}

// applyMutation mirrors the persisted update onto the in-memory job so the
// response reflects what storage now holds.
func applyMutation(job *entity.Job, wctx *workflow.Context, now time.Time) {
	job.Status = wctx.NewStatus
	if wctx.StartedAt != nil {
		job.StartedAt = wctx.StartedAt
	}
	if wctx.CompletedAt != nil {
		job.CompletedAt = wctx.CompletedAt
	}
	if wctx.ActualDuration != nil {
		job.ActualDuration = wctx.ActualDuration
	}
	job.UpdatedAt = now
}

func commentPtr(comment string) *string {
	if comment == "" {
		return nil
	}
	return &comment
}
