package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.Account
	byEmail map[string]string
	locks   *keyLock
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*entity.Account),
		byEmail: make(map[string]string),
		locks:   newKeyLock(),
	}
}

func cloneAccount(a *entity.Account) *entity.Account {
	cp := *a
	if a.ResetCodeExpiresAt != nil {
		t := *a.ResetCodeExpiresAt
		cp.ResetCodeExpiresAt = &t
	}
	return &cp
}

func (r *AccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return errs.Conflict("email already exists")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = entity.RoleUser
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.byID[a.ID] = cloneAccount(a)
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, errs.NotFound("account not found")
	}
	return cloneAccount(a), nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFound("account not found")
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) MutateByID(_ context.Context, id string, fn repository.AccountMutation) (*entity.Account, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	r.mu.RLock()
	cur, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFound("account not found")
	}
	next := cloneAccount(cur)
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID, next.Email = cur.ID, cur.Email
	next.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return nil, errs.NotFound("account not found")
	}
	r.byID[id] = cloneAccount(next)
	return next, nil
}

func (r *AccountRepository) MutateByEmail(ctx context.Context, email string, fn repository.AccountMutation) (*entity.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFound("account not found")
	}
	return r.MutateByID(ctx, id, fn)
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return errs.NotFound("account not found")
	}
	delete(r.byID, id)
	delete(r.byEmail, a.Email)
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
