package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/booking-api/internal/repository"
)

// BaseRepository provides common functionality for all repositories. db
// is either the pool or the enclosing transaction.
type BaseRepository struct {
	db sqlx.ExtContext
}

func NewBaseRepository(db sqlx.ExtContext) BaseRepository {
	return BaseRepository{db: db}
}

// get runs a single-row query and maps sql.ErrNoRows to notFound
func (r *BaseRepository) get(ctx context.Context, dest interface{}, notFound error, op, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, r.db, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, constraintError(err))
	}
	return nil
}

// execAffecting runs a statement and returns how many rows it touched
func (r *BaseRepository) execAffecting(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, constraintError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// requireAffected turns a zero row count into repository.ErrNotFound
func requireAffected(rows int64, err error) error {
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// constraintError tags unique and foreign key violations with the
// matching repository sentinel and keeps the driver error in the chain
func constraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return errors.Join(repository.ErrDuplicate, err)
	case pqForeignKeyViolation:
		return errors.Join(repository.ErrInvalidReference, err)
	}
	return err
}
