package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"fieldservice/internal/domain/entity"
	"fieldservice/internal/domain/repository"
	"fieldservice/internal/infrastructure/metrics"
)

// HistoryRecorder appends audit entries for accepted transitions. The job
// mutation has already been persisted by the time Record runs, so the
// failure mode is configurable: fail-open swallows the error after logging
// (an incomplete audit trail instead of a rolled-back status change),
// fail-closed surfaces it for regulated audit requirements.
type HistoryRecorder struct {
	history    repository.HistoryRepository
	logger     *slog.Logger
	failClosed bool
}

func NewHistoryRecorder(history repository.HistoryRepository, logger *slog.Logger, failClosed bool) *HistoryRecorder {
	return &HistoryRecorder{
		history:    history,
		logger:     logger,
		failClosed: failClosed,
	}
}

func (r *HistoryRecorder) Record(ctx context.Context, entry *entity.StatusHistoryEntry) error {
	if err := r.history.Append(ctx, entry); err != nil {
		metrics.IncHistoryAppendFailure()
		if r.failClosed {
			return fmt.Errorf("append status history: %w", err)
		}
		r.logger.Error("status history append failed, continuing",
			"job_id", entry.JobID, "to_status", entry.ToStatus, "err", err)
		return nil
	}
	return nil
}
