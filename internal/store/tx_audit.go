package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
)

// LockApartment takes the apartment row lock that serializes audit creation.
func (t *pgTx) LockApartment(ctx context.Context, apartmentID int64) error {
	var id int64

	err := t.tx.QueryRow(ctx, "SELECT id FROM apartments WHERE id = $1 FOR UPDATE", apartmentID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrApartmentNotFound
		}

		return fmt.Errorf("locking apartment: %w", err)
	}

	return nil
}

// FindInProgressAudit returns the apartment's IN_PROGRESS audit or nil.
func (t *pgTx) FindInProgressAudit(ctx context.Context, apartmentID int64) (*models.Audit, error) {
	row := t.tx.QueryRow(ctx,
		"SELECT "+auditColumns+" FROM audits WHERE apartment_id = $1 AND status = $2",
		apartmentID, models.AuditStatusInProgress,
	)

	a, err := scanAudit(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // absence is not an error here.
		}

		return nil, fmt.Errorf("finding in-progress audit: %w", err)
	}

	return a, nil
}

// InsertAudit creates an audit row.
func (t *pgTx) InsertAudit(ctx context.Context, a models.Audit) (*models.Audit, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO audits (uuid, apartment_id, template_version_id, status, completion_rate,
			started_at, completed_at, cancelled_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+auditColumns,
		a.UUID, a.ApartmentID, a.TemplateVersionID, a.Status, a.CompletionRate,
		a.StartedAt, a.CompletedAt, a.CancelledAt, a.CreatedBy, a.CreatedAt,
	)

	created, err := scanAudit(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("inserting audit: %w", err)
	}

	t.touch(created.ID)

	return created, nil
}

// LockAudit loads an audit with FOR UPDATE.
func (t *pgTx) LockAudit(ctx context.Context, auditID int64) (*models.Audit, error) {
	row := t.tx.QueryRow(ctx, "SELECT "+auditColumns+" FROM audits WHERE id = $1 FOR UPDATE", auditID)

	a, err := scanAudit(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAuditNotFound
		}

		return nil, fmt.Errorf("locking audit: %w", err)
	}

	return a, nil
}

// UpdateAuditStatus persists the status fields of a. A second IN_PROGRESS
// audit for the same apartment is rejected by audits_one_in_progress.
func (t *pgTx) UpdateAuditStatus(ctx context.Context, a models.Audit) (*models.Audit, error) {
	row := t.tx.QueryRow(ctx, `
		UPDATE audits
		SET status = $2, completion_rate = $3, started_at = $4, completed_at = $5,
			cancelled_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+auditColumns,
		a.ID, a.Status, a.CompletionRate, a.StartedAt, a.CompletedAt, a.CancelledAt,
	)

	updated, err := scanAudit(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAuditNotFound
		}

		if uniqueViolation(err, "audits_one_in_progress") {
			return nil, models.ErrActiveAuditExists
		}

		return nil, fmt.Errorf("updating audit status: %w", err)
	}

	t.touch(updated.ID)

	return updated, nil
}

// UpdateCompletionRate stores the audit-wide completion rate.
func (t *pgTx) UpdateCompletionRate(ctx context.Context, auditID int64, rate float64) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE audits SET completion_rate = $2, updated_at = NOW() WHERE id = $1",
		auditID, rate,
	)
	if err != nil {
		return fmt.Errorf("updating completion rate: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrAuditNotFound
	}

	t.touch(auditID)

	return nil
}

// AppendStatusHistory records one transition.
func (t *pgTx) AppendStatusHistory(ctx context.Context, h models.AuditStatusHistory) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO audit_status_history (audit_id, from_status, to_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.AuditID, h.FromStatus, h.ToStatus, h.Actor, h.Reason, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting status history: %w", err)
	}

	return nil
}
