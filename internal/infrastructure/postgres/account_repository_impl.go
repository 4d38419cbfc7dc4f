package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, nickname, gender, is_adult_confirmed, role,
	is_logged_in, reset_code_hash, reset_code_expires_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var gender, role string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Nickname, &gender, &a.IsAdultConfirmed, &role,
		&a.IsLoggedIn, &a.ResetCodeHash, &a.ResetCodeExpiresAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Gender = entity.Gender(gender)
	a.Role = entity.Role(role)
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = entity.RoleUser
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, nickname, gender, is_adult_confirmed, role, is_logged_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.PasswordHash, a.Nickname, string(a.Gender), a.IsAdultConfirmed, string(a.Role), a.IsLoggedIn)

	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("email already exists")
		}
		return wrap("create account", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	if !validID(id) {
		return nil, errs.NotFound("account not found")
	}
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, lookupErr("get account", "account", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	if err != nil {
		return nil, lookupErr("get account", "account", err)
	}
	return a, nil
}

func (r *AccountRepository) MutateByID(ctx context.Context, id string, fn repository.AccountMutation) (*entity.Account, error) {
	if !validID(id) {
		return nil, errs.NotFound("account not found")
	}
	return r.mutate(ctx, `id = $1`, id, fn)
}

func (r *AccountRepository) MutateByEmail(ctx context.Context, email string, fn repository.AccountMutation) (*entity.Account, error) {
	return r.mutate(ctx, `email = $1`, email, fn)
}

// mutate locks the account row for the duration of fn and writes back every mutable column.
func (r *AccountRepository) mutate(ctx context.Context, where string, arg string, fn repository.AccountMutation) (*entity.Account, error) {
	var out *entity.Account
	err := inTx(ctx, r.pool, "update account", func(tx pgx.Tx) error {
		a, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+` FOR UPDATE`, arg))
		if err != nil {
			return lookupErr("load account", "account", err)
		}
		if err := fn(a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now()
		_, err = tx.Exec(ctx, `
			UPDATE accounts
			SET password_hash = $1, nickname = $2, gender = $3, is_adult_confirmed = $4, role = $5,
			    is_logged_in = $6, reset_code_hash = $7, reset_code_expires_at = $8, updated_at = $9
			WHERE id = $10
		`, a.PasswordHash, a.Nickname, string(a.Gender), a.IsAdultConfirmed, string(a.Role),
			a.IsLoggedIn, a.ResetCodeHash, a.ResetCodeExpiresAt, a.UpdatedAt, a.ID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errs.NotFound("account not found")
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return wrap("delete account", err)
	}
	if res.RowsAffected() == 0 {
		return errs.NotFound("account not found")
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
