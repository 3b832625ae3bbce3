package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tempus-hr/tempus/internal/shared"
)

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level. Transition guards rely on this: read status, validate,
// write status runs as one atomic unit per entity.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", shared.ErrUnavailable)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// Postgres error codes used for taxonomy mapping.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// MapError converts driver errors into the shared error taxonomy. Unique
// violations become ErrConflict, broken references ErrValidation, missing
// rows ErrNotFound and connection failures ErrUnavailable.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, shared.ErrConflict)
		case codeForeignKeyViolation:
			return fmt.Errorf("referenced record missing: %w", shared.ErrValidation)
		}
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%v: %w", err, shared.ErrUnavailable)
	}
	return err
}
