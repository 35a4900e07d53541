package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditIncidence is a non-conformity spawned by an auto-incidence rule.
// Its descriptive fields are a copy of the incidence template at creation time.
type AuditIncidence struct {
	ID                  int64             `json:"id"`
	UUID                uuid.UUID         `json:"uuid"`
	AuditID             int64             `json:"audit_id"`
	AuditItemID         int64             `json:"audit_item_id"`
	ApartmentID         int64             `json:"apartment_id"`
	SpaceID             *int64            `json:"space_id,omitempty"`
	ElementID           *int64            `json:"element_id,omitempty"`
	IncidenceTemplateID int64             `json:"incidence_template_id"`
	RuleID              int64             `json:"rule_id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	CorrectiveAction    string            `json:"corrective_action,omitempty"`
	Category            QuestionCategory  `json:"category"`
	Severity            IncidenceSeverity `json:"severity"`
	NonConformityType   NonConformityType `json:"non_conformity_type"`
	ResponsibleType     ResponsibleType   `json:"responsible_type"`
	Status              IncidenceStatus   `json:"status"`
	DueAt               *time.Time        `json:"due_at,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// TargetContext is the apartment/space/element scope of an answered item,
// inherited by artifacts the rule engine spawns from it.
type TargetContext struct {
	ApartmentID int64
	AuditID     int64
	Item        *AuditItem
}

// NewIncidence builds an OPEN incidence from rule r scoped to tc at now.
func NewIncidence(r *AutoIncidenceRule, tc TargetContext, now time.Time) AuditIncidence {
	t := r.IncidenceTemplate

	inc := AuditIncidence{
		UUID:                uuid.New(),
		AuditID:             tc.AuditID,
		AuditItemID:         tc.Item.ID,
		ApartmentID:         tc.ApartmentID,
		SpaceID:             tc.Item.SpaceID,
		ElementID:           tc.Item.ElementID,
		IncidenceTemplateID: t.ID,
		RuleID:              r.ID,
		Title:               t.Title,
		Description:         t.Description,
		CorrectiveAction:    t.CorrectiveAction,
		Category:            t.Category,
		Severity:            t.Severity,
		NonConformityType:   t.NonConformityType,
		ResponsibleType:     t.ResponsibleType,
		Status:              IncidenceOpen,
		CreatedAt:           now,
	}

	if t.ResolutionDays > 0 {
		due := now.AddDate(0, 0, t.ResolutionDays)
		inc.DueAt = &due
	}

	return inc
}

// RuleOutcome lists the artifacts created by one rule evaluation.
type RuleOutcome struct {
	Incidences []AuditIncidence `json:"incidences"`
	FollowUps  []AuditItem      `json:"follow_ups"`
}
