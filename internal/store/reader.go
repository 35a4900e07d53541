package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

var _ service.AuditReader = (*AuditReadStore)(nil)

// AuditReadStore serves audit reads straight from the pool.
type AuditReadStore struct {
	Base
}

// NewAuditReadStore creates an AuditReadStore.
func NewAuditReadStore(base Base) *AuditReadStore {
	return &AuditReadStore{Base: base}
}

// GetAudit returns an audit by id.
func (s *AuditReadStore) GetAudit(ctx context.Context, auditID int64) (*models.Audit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.audit(ctx, "SELECT "+auditColumns+" FROM audits WHERE id = $1", auditID)
}

// GetAuditByUUID returns an audit by its public identifier.
func (s *AuditReadStore) GetAuditByUUID(ctx context.Context, id string) (*models.Audit, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, models.ErrAuditNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.audit(ctx, "SELECT "+auditColumns+" FROM audits WHERE uuid = $1", u)
}

func (s *AuditReadStore) audit(ctx context.Context, query string, arg any) (*models.Audit, error) {
	a, err := scanAudit(s.Pool.QueryRow(ctx, query, arg).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAuditNotFound
		}

		return nil, fmt.Errorf("getting audit: %w", err)
	}

	return a, nil
}

// ListAudits returns an apartment's audits newest first, optionally filtered
// by status. The bool reports whether more rows exist.
func (s *AuditReadStore) ListAudits(
	ctx context.Context, apartmentID int64, status models.AuditStatus, limit, offset int,
) ([]models.Audit, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit = clampLimit(limit, 50)

	rows, err := s.Pool.Query(ctx, `
		SELECT `+auditColumns+` FROM audits
		WHERE apartment_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		apartmentID, string(status), limit+1, offset,
	)
	if err != nil {
		return nil, false, fmt.Errorf("listing audits: %w", err)
	}

	audits, err := collect(rows, "audit", scanAudit)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(audits) > limit
	if hasMore {
		audits = audits[:limit]
	}

	return audits, hasMore, nil
}

// ListItems returns an audit's items with options, follow-ups after their
// siblings by sort order.
func (s *AuditReadStore) ListItems(ctx context.Context, auditID int64) ([]models.AuditItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+itemColumns+" FROM audit_items WHERE audit_id = $1 ORDER BY sort_order, id", auditID)
	if err != nil {
		return nil, fmt.Errorf("listing audit items: %w", err)
	}

	items, err := collect(rows, "audit item", scanItem)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	opts, err := loadOptions(ctx, s.Pool, ids)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Options = opts[items[i].ID]
		if items[i].Options == nil {
			items[i].Options = []models.AuditAnswerOption{}
		}
	}

	return items, nil
}

// GetResponse returns an item's response with selected options and photos.
func (s *AuditReadStore) GetResponse(ctx context.Context, auditID, itemID int64) (*models.AuditResponse, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		"SELECT "+responseColumns+" FROM audit_responses WHERE audit_id = $1 AND audit_item_id = $2",
		auditID, itemID,
	)

	r, err := scanResponse(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrResponseNotFound
		}

		return nil, fmt.Errorf("getting response: %w", err)
	}

	rows, err := s.Pool.Query(ctx,
		"SELECT audit_answer_option_id FROM audit_response_options WHERE audit_response_id = $1 ORDER BY 1", r.ID)
	if err != nil {
		return nil, fmt.Errorf("querying selected options: %w", err)
	}

	r.SelectedOptionIDs, err = pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scanning selected options: %w", err)
	}

	rows, err = s.Pool.Query(ctx,
		"SELECT "+photoColumns+" FROM audit_photos WHERE audit_response_id = $1 ORDER BY id", r.ID)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}

	if r.Photos, err = collect(rows, "photo", scanPhoto); err != nil {
		return nil, err
	}

	return r, nil
}

// ListIncidences returns an audit's incidences in creation order.
func (s *AuditReadStore) ListIncidences(ctx context.Context, auditID int64) ([]models.AuditIncidence, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+incidenceColumns+" FROM audit_incidences WHERE audit_id = $1 ORDER BY id", auditID)
	if err != nil {
		return nil, fmt.Errorf("listing incidences: %w", err)
	}

	return collect(rows, "incidence", scanIncidence)
}

// ListStatusHistory returns an audit's transitions in order.
func (s *AuditReadStore) ListStatusHistory(ctx context.Context, auditID int64) ([]models.AuditStatusHistory, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+historyColumns+" FROM audit_status_history WHERE audit_id = $1 ORDER BY id", auditID)
	if err != nil {
		return nil, fmt.Errorf("listing status history: %w", err)
	}

	return collect(rows, "status history", scanHistory)
}
