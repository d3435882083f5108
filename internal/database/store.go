package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/money"
)

// Store persists books, readers, rentals and the ledger in Postgres. Every
// mutation runs in its own transaction with a bounded lock_timeout, so a
// contended row fails fast with a busy error instead of queueing.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewStore wraps a pool. lockTimeout bounds row lock waits per transaction.
func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 250 * time.Millisecond
	}
	return &Store{pool: pool, lockTimeout: lockTimeout}
}

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// centsOf converts amounts to the BIGINT cents stored in every money column
func centsOf(amounts ...money.Money) ([]int64, error) {
	out := make([]int64, len(amounts))
	for i, a := range amounts {
		c, err := a.Cents()
		if err != nil {
			return nil, errs.Validation("%v", err)
		}
		out[i] = c
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// Ping checks the pool
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// inTx runs fn in a read-committed transaction and commits when it succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, timeout); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		return fn(tx)
	})
}

// inSnapshot runs fn in a read-only repeatable-read transaction so every
// statement sees the same snapshot.
func (s *Store) inSnapshot(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}

// mapError turns driver errors into the engine's error kinds.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errs.Code(err) != "INTERNAL_ERROR" {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound("%s not found", what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.LockNotAvailable:
			return errs.Busy("%s is locked by another operation", what)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return errs.Busy("%s: concurrent update, retry", what)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.StringDataRightTruncationDataException:
			return errs.Validation("%s: %s", what, pgErr.Message)
		case pgerrcode.UniqueViolation:
			return errs.Conflict("%s already exists", what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
