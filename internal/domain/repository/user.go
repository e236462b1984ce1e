package repository

import (
	"context"

	"fieldservice/internal/domain/entity"
)

// UserRepository resolves acting users. The workflow engine looks the role
// up here instead of trusting the role claimed by the caller.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
