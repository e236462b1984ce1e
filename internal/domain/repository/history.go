package repository

import (
	"context"

	"fieldservice/internal/domain/entity"
)

// HistoryRepository stores the append-only status audit trail. Entries are
// never updated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, entry *entity.StatusHistoryEntry) error
	// ListByJob returns all entries for a job ordered by ChangedAt ascending.
	ListByJob(ctx context.Context, jobID string) ([]*entity.StatusHistoryEntry, error)
	// LastByJob returns the most recent entry, or nil when none exists.
	LastByJob(ctx context.Context, jobID string) (*entity.StatusHistoryEntry, error)
}
