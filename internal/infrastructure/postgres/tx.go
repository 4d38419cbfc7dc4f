package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/storyverse-api/internal/domain/errs"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// inTx runs fn in a transaction. Domain errors returned by fn pass through
// untouched; anything else becomes a dependency error.
func inTx(ctx context.Context, pool *pgxpool.Pool, op string, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, fn)
	return wrap(op, err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *errs.Error
	if errors.As(err, &de) {
		return err
	}
	return errs.Dependency(op, err)
}

// lookupErr maps pgx.ErrNoRows onto a not-found error for what.
func lookupErr(op, what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound(what + " not found")
	}
	return wrap(op, err)
}

// validID guards uuid columns from malformed input, which is a miss rather than a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
