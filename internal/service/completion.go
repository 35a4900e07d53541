package service

import (
	"context"
	"fmt"
	"math"
)

// CompletionTracker recomputes the audit-wide completion rate.
type CompletionTracker struct {
	uow UnitOfWork
}

// NewCompletionTracker creates a CompletionTracker.
func NewCompletionTracker(uow UnitOfWork) *CompletionTracker {
	return &CompletionTracker{uow: uow}
}

// Recompute runs recompute in its own transaction.
func (c *CompletionTracker) Recompute(ctx context.Context, auditID int64) (float64, error) {
	var rate float64

	err := c.uow.RunInTx(ctx, func(tx Tx) error {
		var err error
		rate, err = c.recompute(ctx, tx, auditID)

		return err
	})

	return rate, err
}

// recompute persists answered/total × 100 over the current item set. Items
// spawned by follow-up rules enlarge the denominator immediately.
func (c *CompletionTracker) recompute(ctx context.Context, tx Tx, auditID int64) (float64, error) {
	total, answered, err := tx.CountItems(ctx, auditID)
	if err != nil {
		return 0, fmt.Errorf("counting audit items: %w", err)
	}

	rate := CompletionRate(answered, total)

	if err := tx.UpdateCompletionRate(ctx, auditID, rate); err != nil {
		return 0, fmt.Errorf("updating completion rate: %w", err)
	}

	return rate, nil
}

// CompletionRate returns answered/total as a percentage rounded to two decimals.
func CompletionRate(answered, total int) float64 {
	if total <= 0 {
		return 0
	}

	return math.Round(float64(answered)/float64(total)*10000) / 100
}
