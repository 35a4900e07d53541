package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
)

const insertItemSQL = `
	INSERT INTO audit_items (audit_id, question_id, target_type, space_id, element_id,
		question_code, question_text, answer_type, category, impact, is_mandatory,
		weight, sort_order, parent_audit_item_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func itemArgs(auditID int64, d *models.AuditItemDraft) []any {
	return []any{
		auditID, d.QuestionID, d.TargetType, d.SpaceID, d.ElementID,
		d.QuestionCode, d.QuestionText, d.AnswerType, d.Category, d.Impact, d.IsMandatory,
		d.Weight, d.SortOrder, d.ParentAuditItemID,
	}
}

// InsertItems persists drafts and their option snapshots in draft order.
func (t *pgTx) InsertItems(ctx context.Context, auditID int64, drafts []models.AuditItemDraft) ([]models.AuditItem, error) {
	items := make([]models.AuditItem, 0, len(drafts))

	for i := range drafts {
		row := t.tx.QueryRow(ctx, insertItemSQL+" RETURNING "+itemColumns, itemArgs(auditID, &drafts[i])...)

		item, err := scanItem(row.Scan)
		if err != nil {
			return nil, fmt.Errorf("inserting audit item for question %d: %w", drafts[i].QuestionID, err)
		}

		if item.Options, err = t.insertOptions(ctx, item.ID, drafts[i].Options); err != nil {
			return nil, err
		}

		items = append(items, *item)
	}

	t.touch(auditID)

	return items, nil
}

// InsertFollowUpItem inserts a child item unless one already exists for the
// same (parent, question) pair.
func (t *pgTx) InsertFollowUpItem(
	ctx context.Context, auditID int64, draft models.AuditItemDraft,
) (*models.AuditItem, bool, error) {
	row := t.tx.QueryRow(ctx, insertItemSQL+`
		ON CONFLICT (parent_audit_item_id, question_id) WHERE parent_audit_item_id IS NOT NULL
		DO NOTHING
		RETURNING `+itemColumns, itemArgs(auditID, &draft)...)

	item, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("inserting follow-up item: %w", err)
	}

	if item.Options, err = t.insertOptions(ctx, item.ID, draft.Options); err != nil {
		return nil, false, err
	}

	t.touch(auditID)

	return item, true, nil
}

// insertOptions snapshots option rows for one item.
func (t *pgTx) insertOptions(ctx context.Context, itemID int64, opts []models.AuditAnswerOption) ([]models.AuditAnswerOption, error) {
	if len(opts) == 0 {
		return []models.AuditAnswerOption{}, nil
	}

	templateIDs := make([]int64, len(opts))
	codes := make([]string, len(opts))
	labels := make([]string, len(opts))
	orders := make([]int32, len(opts))
	penalties := make([]float64, len(opts))

	for i, o := range opts {
		templateIDs[i] = o.TemplateOptionID
		codes[i] = o.Code
		labels[i] = o.Label
		orders[i] = int32(o.SortOrder) //nolint:gosec // sort orders are small catalog values.
		penalties[i] = o.PenaltyWeight
	}

	rows, err := t.tx.Query(ctx, `
		INSERT INTO audit_answer_options (audit_item_id, template_option_id, code, label, sort_order, penalty_weight)
		SELECT $1::bigint, * FROM unnest($2::bigint[], $3::text[], $4::text[], $5::int[], $6::float8[])
		RETURNING `+optionColumns,
		itemID, templateIDs, codes, labels, orders, penalties,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting answer options for item %d: %w", itemID, err)
	}

	out, err := collect(rows, "answer option", scanOption)
	if err != nil {
		return nil, err
	}

	sortOptions(out)

	return out, nil
}

// FollowUpExists reports whether parentItemID already spawned questionID.
func (t *pgTx) FollowUpExists(ctx context.Context, parentItemID, questionID int64) (bool, error) {
	var exists bool

	err := t.tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM audit_items WHERE parent_audit_item_id = $1 AND question_id = $2)",
		parentItemID, questionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking follow-up existence: %w", err)
	}

	return exists, nil
}

// GetItem loads one item of auditID with its options.
func (t *pgTx) GetItem(ctx context.Context, auditID, itemID int64) (*models.AuditItem, error) {
	return getItem(ctx, t.tx, auditID, itemID)
}

func getItem(ctx context.Context, q querier, auditID, itemID int64) (*models.AuditItem, error) {
	row := q.QueryRow(ctx, "SELECT "+itemColumns+" FROM audit_items WHERE id = $1 AND audit_id = $2", itemID, auditID)

	item, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAuditItemNotFound
		}

		return nil, fmt.Errorf("getting audit item: %w", err)
	}

	opts, err := loadOptions(ctx, q, []int64{item.ID})
	if err != nil {
		return nil, err
	}

	item.Options = opts[item.ID]
	if item.Options == nil {
		item.Options = []models.AuditAnswerOption{}
	}

	return item, nil
}

// loadOptions returns option snapshots grouped by item id.
func loadOptions(ctx context.Context, q querier, itemIDs []int64) (map[int64][]models.AuditAnswerOption, error) {
	rows, err := q.Query(ctx,
		"SELECT "+optionColumns+" FROM audit_answer_options WHERE audit_item_id = ANY($1) ORDER BY audit_item_id, sort_order, id",
		itemIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying answer options: %w", err)
	}

	opts, err := collect(rows, "answer option", scanOption)
	if err != nil {
		return nil, err
	}

	byItem := make(map[int64][]models.AuditAnswerOption, len(itemIDs))
	for _, o := range opts {
		byItem[o.AuditItemID] = append(byItem[o.AuditItemID], o)
	}

	return byItem, nil
}

func sortOptions(opts []models.AuditAnswerOption) {
	slices.SortFunc(opts, func(a, b models.AuditAnswerOption) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}

		return int(a.ID - b.ID)
	})
}

// MarkItemAnswered flips is_answered with a compare-and-swap so concurrent
// answers to the same item cannot both succeed.
func (t *pgTx) MarkItemAnswered(ctx context.Context, auditID, itemID int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE audit_items
		SET is_answered = TRUE, completion_rate = 100, answered_at = $3, updated_at = $3
		WHERE id = $1 AND audit_id = $2 AND NOT is_answered`,
		itemID, auditID, at,
	)
	if err != nil {
		return fmt.Errorf("marking item answered: %w", err)
	}

	if tag.RowsAffected() == 1 {
		t.touch(auditID)
		return nil
	}

	var exists bool
	if err := t.tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM audit_items WHERE id = $1 AND audit_id = $2)", itemID, auditID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking audit item: %w", err)
	}

	if !exists {
		return models.ErrAuditItemNotFound
	}

	return models.ErrAlreadyAnswered
}

// CountItems returns the total and answered item counts of an audit.
func (t *pgTx) CountItems(ctx context.Context, auditID int64) (total, answered int, err error) {
	err = t.tx.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE is_answered) FROM audit_items WHERE audit_id = $1",
		auditID,
	).Scan(&total, &answered)
	if err != nil {
		return 0, 0, fmt.Errorf("counting audit items: %w", err)
	}

	return total, answered, nil
}

// CountUnansweredMandatory returns how many mandatory items are still open.
func (t *pgTx) CountUnansweredMandatory(ctx context.Context, auditID int64) (int, error) {
	var n int

	err := t.tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM audit_items WHERE audit_id = $1 AND is_mandatory AND NOT is_answered",
		auditID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unanswered mandatory items: %w", err)
	}

	return n, nil
}
