package store

import (
	"context"
	"fmt"

	"github.com/persistorai/aptaudit/internal/models"
)

// InsertResponse records the answer of one item. The unique key on
// audit_item_id rejects a second response.
func (t *pgTx) InsertResponse(ctx context.Context, r models.AuditResponse) (*models.AuditResponse, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO audit_responses (audit_id, audit_item_id, bool_value, text_value, number_value,
			notes, responded_by, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+responseColumns,
		r.AuditID, r.AuditItemID, r.BoolValue, r.TextValue, r.NumberValue,
		r.Notes, r.RespondedBy, r.StartedAt, r.CompletedAt,
	)

	created, err := scanResponse(row.Scan)
	if err != nil {
		if uniqueViolation(err, "") {
			return nil, models.ErrAlreadyAnswered
		}

		return nil, fmt.Errorf("inserting response: %w", err)
	}

	created.SelectedOptionIDs = r.SelectedOptionIDs
	if created.SelectedOptionIDs == nil {
		created.SelectedOptionIDs = []int64{}
	}

	created.Photos = []models.AuditPhoto{}

	return created, nil
}

// LinkSelectedOptions stores the response-to-option selection.
func (t *pgTx) LinkSelectedOptions(ctx context.Context, responseID int64, optionIDs []int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO audit_response_options (audit_response_id, audit_answer_option_id)
		SELECT $1::bigint, unnest($2::bigint[])`,
		responseID, optionIDs,
	)
	if err != nil {
		return fmt.Errorf("linking selected options: %w", err)
	}

	return nil
}

// InsertPhotos attaches photo metadata to a response.
func (t *pgTx) InsertPhotos(ctx context.Context, responseID int64, photos []models.PhotoUpload) ([]models.AuditPhoto, error) {
	urls := make([]string, len(photos))
	keys := make([]string, len(photos))
	types := make([]string, len(photos))
	sizes := make([]int64, len(photos))

	for i, p := range photos {
		urls[i] = p.URL
		keys[i] = p.StorageKey
		types[i] = p.ContentType
		sizes[i] = p.SizeBytes
	}

	rows, err := t.tx.Query(ctx, `
		INSERT INTO audit_photos (audit_response_id, url, storage_key, content_type, size_bytes)
		SELECT $1::bigint, * FROM unnest($2::text[], $3::text[], $4::text[], $5::bigint[])
		RETURNING `+photoColumns,
		responseID, urls, keys, types, sizes,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting photos: %w", err)
	}

	return collect(rows, "photo", scanPhoto)
}

// InsertIncidence persists an incidence created by the rule engine.
func (t *pgTx) InsertIncidence(ctx context.Context, inc models.AuditIncidence) (*models.AuditIncidence, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO audit_incidences (uuid, audit_id, audit_item_id, apartment_id, space_id, element_id,
			incidence_template_id, rule_id, title, description, corrective_action, category,
			severity, non_conformity_type, responsible_type, status, due_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+incidenceColumns,
		inc.UUID, inc.AuditID, inc.AuditItemID, inc.ApartmentID, inc.SpaceID, inc.ElementID,
		inc.IncidenceTemplateID, inc.RuleID, inc.Title, inc.Description, inc.CorrectiveAction, inc.Category,
		inc.Severity, inc.NonConformityType, inc.ResponsibleType, inc.Status, inc.DueAt, inc.CreatedAt,
	)

	created, err := scanIncidence(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("inserting incidence: %w", err)
	}

	t.touch(inc.AuditID)

	return created, nil
}
