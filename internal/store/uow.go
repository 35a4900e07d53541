package store

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/db"
	"github.com/persistorai/aptaudit/internal/service"
)

// Compile-time checks.
var (
	_ service.UnitOfWork = (*UnitOfWork)(nil)
	_ service.Tx         = (*pgTx)(nil)
)

// UnitOfWork runs engine operations in a single PostgreSQL transaction.
type UnitOfWork struct {
	Base
}

// NewUnitOfWork creates a UnitOfWork.
func NewUnitOfWork(base Base) *UnitOfWork {
	return &UnitOfWork{Base: base}
}

// RunInTx begins a transaction, calls fn with a Tx bound to it and commits
// when fn returns nil. Audits written through the Tx are announced on the
// audit_changes channel; PostgreSQL delivers the notifications only if the
// transaction commits.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(tx service.Tx) error) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := u.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit or on error.

	t := newPgTx(tx)

	if err := fn(t); err != nil {
		return err
	}

	if err := t.announce(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// querier is the read surface shared by pgx.Tx and dbpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgTx implements service.Tx on a pgx transaction. Catalog and apartment
// reads run on the same transaction as the writes.
type pgTx struct {
	catalogReader
	apartmentReader

	tx      pgx.Tx
	touched map[int64]struct{}
}

func newPgTx(tx pgx.Tx) *pgTx {
	return &pgTx{
		catalogReader:   catalogReader{q: tx},
		apartmentReader: apartmentReader{q: tx},
		tx:              tx,
		touched:         make(map[int64]struct{}),
	}
}

func (t *pgTx) touch(auditID int64) {
	t.touched[auditID] = struct{}{}
}

// announce queues one pg_notify per touched audit carrying its final state.
func (t *pgTx) announce(ctx context.Context) error {
	if len(t.touched) == 0 {
		return nil
	}

	ids := slices.Sorted(maps.Keys(t.touched))

	_, err := t.tx.Exec(ctx, `
		SELECT pg_notify($2, json_build_object(
			'audit_id', id,
			'type', $3::text,
			'status', status,
			'completion_rate', completion_rate
		)::text)
		FROM audits WHERE id = ANY($1)`, ids, db.AuditChannel, db.AuditChangedEvent)
	if err != nil {
		return fmt.Errorf("queueing audit notifications: %w", err)
	}

	return nil
}
