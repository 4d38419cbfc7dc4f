package repository

import (
	"context"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
)

// AccountMutation edits an account loaded under an exclusive lock. Returning
// an error aborts the write and leaves the stored account unchanged.
type AccountMutation func(a *entity.Account) error

// AccountRepository defines persistence for accounts.
// Create reports errs.Conflict on a duplicate email; lookups report errs.NotFound.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	MutateByID(ctx context.Context, id string, fn AccountMutation) (*entity.Account, error)
	MutateByEmail(ctx context.Context, email string, fn AccountMutation) (*entity.Account, error)
	Delete(ctx context.Context, id string) error
}
