package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
)

// auditColumns lists the columns selected for audit queries.
const auditColumns = `id, uuid, apartment_id, template_version_id, status, completion_rate,
	started_at, completed_at, cancelled_at, created_by, created_at, updated_at`

// itemColumns lists the columns selected for audit item queries.
const itemColumns = `id, audit_id, question_id, target_type, space_id, element_id,
	question_code, question_text, answer_type, category, impact, is_mandatory,
	weight, sort_order, is_answered, is_visible, completion_rate,
	parent_audit_item_id, answered_at, created_at, updated_at`

// optionColumns lists the columns selected for audit answer option queries.
const optionColumns = `id, audit_item_id, template_option_id, code, label, sort_order, penalty_weight`

// responseColumns lists the columns selected for response queries.
const responseColumns = `id, audit_id, audit_item_id, bool_value, text_value, number_value,
	notes, responded_by, started_at, completed_at`

// photoColumns lists the columns selected for photo queries.
const photoColumns = `id, audit_response_id, url, storage_key, content_type, size_bytes, created_at`

// incidenceColumns lists the columns selected for incidence queries.
const incidenceColumns = `id, uuid, audit_id, audit_item_id, apartment_id, space_id, element_id,
	incidence_template_id, rule_id, title, description, corrective_action, category,
	severity, non_conformity_type, responsible_type, status, due_at, created_at`

// historyColumns lists the columns selected for status history queries.
const historyColumns = `id, audit_id, from_status, to_status, actor, reason, created_at`

// scanAudit scans a single row into a models.Audit.
func scanAudit(scan func(dest ...any) error) (*models.Audit, error) {
	var a models.Audit

	err := scan(
		&a.ID,
		&a.UUID,
		&a.ApartmentID,
		&a.TemplateVersionID,
		&a.Status,
		&a.CompletionRate,
		&a.StartedAt,
		&a.CompletedAt,
		&a.CancelledAt,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// scanItem scans a single row into a models.AuditItem without options.
func scanItem(scan func(dest ...any) error) (*models.AuditItem, error) {
	var it models.AuditItem

	err := scan(
		&it.ID,
		&it.AuditID,
		&it.QuestionID,
		&it.TargetType,
		&it.SpaceID,
		&it.ElementID,
		&it.QuestionCode,
		&it.QuestionText,
		&it.AnswerType,
		&it.Category,
		&it.Impact,
		&it.IsMandatory,
		&it.Weight,
		&it.SortOrder,
		&it.IsAnswered,
		&it.IsVisible,
		&it.CompletionRate,
		&it.ParentAuditItemID,
		&it.AnsweredAt,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &it, nil
}

func scanOption(scan func(dest ...any) error) (*models.AuditAnswerOption, error) {
	var o models.AuditAnswerOption

	if err := scan(&o.ID, &o.AuditItemID, &o.TemplateOptionID, &o.Code, &o.Label, &o.SortOrder, &o.PenaltyWeight); err != nil {
		return nil, err
	}

	return &o, nil
}

func scanResponse(scan func(dest ...any) error) (*models.AuditResponse, error) {
	var r models.AuditResponse

	err := scan(
		&r.ID,
		&r.AuditID,
		&r.AuditItemID,
		&r.BoolValue,
		&r.TextValue,
		&r.NumberValue,
		&r.Notes,
		&r.RespondedBy,
		&r.StartedAt,
		&r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func scanPhoto(scan func(dest ...any) error) (*models.AuditPhoto, error) {
	var p models.AuditPhoto

	if err := scan(&p.ID, &p.AuditResponseID, &p.URL, &p.StorageKey, &p.ContentType, &p.SizeBytes, &p.CreatedAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// scanIncidence scans a single row into a models.AuditIncidence.
func scanIncidence(scan func(dest ...any) error) (*models.AuditIncidence, error) {
	var inc models.AuditIncidence

	err := scan(
		&inc.ID,
		&inc.UUID,
		&inc.AuditID,
		&inc.AuditItemID,
		&inc.ApartmentID,
		&inc.SpaceID,
		&inc.ElementID,
		&inc.IncidenceTemplateID,
		&inc.RuleID,
		&inc.Title,
		&inc.Description,
		&inc.CorrectiveAction,
		&inc.Category,
		&inc.Severity,
		&inc.NonConformityType,
		&inc.ResponsibleType,
		&inc.Status,
		&inc.DueAt,
		&inc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &inc, nil
}

func scanHistory(scan func(dest ...any) error) (*models.AuditStatusHistory, error) {
	var h models.AuditStatusHistory

	if err := scan(&h.ID, &h.AuditID, &h.FromStatus, &h.ToStatus, &h.Actor, &h.Reason, &h.CreatedAt); err != nil {
		return nil, err
	}

	return &h, nil
}

// collect scans all rows with scanFn. what names the entity in errors.
func collect[T any](rows pgx.Rows, what string, scanFn func(func(dest ...any) error) (*T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0, 16)

	for rows.Next() {
		v, err := scanFn(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", what, err)
		}

		out = append(out, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", what, err)
	}

	return out, nil
}
