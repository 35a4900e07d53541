// Package store provides PostgreSQL data access for the audit engine.
//
// Each store owns one concern (audit reads, activity, catalog seeding) and
// embeds shared helpers (Pool, logger) via the Base struct. Engine operations
// go through UnitOfWork, which hands a transaction-bound Tx to the service
// layer for the duration of one operation; catalog and apartment reads run on
// that transaction too.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit caps page sizes for list queries.
const maxListLimit = 1000

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// uniqueViolation reports whether err is a unique constraint violation on
// constraint, or on any constraint when constraint is empty.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}

// clampLimit bounds a caller-supplied page size.
func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}

	if limit > maxListLimit {
		return maxListLimit
	}

	return limit
}
