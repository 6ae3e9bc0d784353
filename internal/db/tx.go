package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migrationLockID keys the advisory lock held while the schema is applied.
const migrationLockID int64 = 0x72656d6974 // "remit"

// WithTx runs fn inside a transaction and commits only if fn succeeds.
func (db *DB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// withAdvisoryLock is WithTx holding a transaction-scoped advisory lock, so
// replicas starting together apply the schema one at a time.
func (db *DB) withAdvisoryLock(ctx context.Context, lockID int64, fn func(tx pgx.Tx) error) error {
	return db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
			return fmt.Errorf("acquire advisory lock: %w", err)
		}
		return fn(tx)
	})
}
