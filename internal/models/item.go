package models

import "time"

// AuditItem is one instantiated question scoped to the apartment, a space,
// or an element. Question fields are snapshotted at instantiation.
type AuditItem struct {
	ID                int64               `json:"id"`
	AuditID           int64               `json:"audit_id"`
	QuestionID        int64               `json:"question_id"`
	TargetType        QuestionTargetType  `json:"target_type"`
	SpaceID           *int64              `json:"space_id,omitempty"`
	ElementID         *int64              `json:"element_id,omitempty"`
	QuestionCode      string              `json:"question_code"`
	QuestionText      string              `json:"question_text"`
	AnswerType        AnswerType          `json:"answer_type"`
	Category          QuestionCategory    `json:"category"`
	Impact            ImpactLevel         `json:"impact"`
	IsMandatory       bool                `json:"is_mandatory"`
	Weight            float64             `json:"weight"`
	SortOrder         int                 `json:"sort_order"`
	IsAnswered        bool                `json:"is_answered"`
	IsVisible         bool                `json:"is_visible"`
	CompletionRate    float64             `json:"completion_rate"`
	ParentAuditItemID *int64              `json:"parent_audit_item_id,omitempty"`
	AnsweredAt        *time.Time          `json:"answered_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Options           []AuditAnswerOption `json:"options"`
}

// IsFollowUp reports whether the item was spawned by a follow-up rule.
func (i *AuditItem) IsFollowUp() bool { return i.ParentAuditItemID != nil }

// Answered returns a copy of i flagged as answered at now.
func (i AuditItem) Answered(now time.Time) AuditItem {
	i.IsAnswered = true
	i.CompletionRate = 100
	i.AnsweredAt = &now
	i.UpdatedAt = now

	return i
}

// AuditAnswerOption is a per-item snapshot of a catalog answer option.
type AuditAnswerOption struct {
	ID               int64   `json:"id"`
	AuditItemID      int64   `json:"audit_item_id"`
	TemplateOptionID int64   `json:"template_option_id"`
	Code             string  `json:"code"`
	Label            string  `json:"label"`
	SortOrder        int     `json:"sort_order"`
	PenaltyWeight    float64 `json:"penalty_weight"`
}

// AuditItemDraft is an item ready to be persisted.
type AuditItemDraft struct {
	QuestionID        int64
	TargetType        QuestionTargetType
	SpaceID           *int64
	ElementID         *int64
	QuestionCode      string
	QuestionText      string
	AnswerType        AnswerType
	Category          QuestionCategory
	Impact            ImpactLevel
	IsMandatory       bool
	Weight            float64
	SortOrder         int
	ParentAuditItemID *int64
	Options           []AuditAnswerOption
}

// DraftFromQuestion snapshots q into a draft scoped to the given space/element.
func DraftFromQuestion(q *Question, spaceID, elementID *int64) AuditItemDraft {
	opts := make([]AuditAnswerOption, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, AuditAnswerOption{
			TemplateOptionID: o.ID,
			Code:             o.Code,
			Label:            o.Label,
			SortOrder:        o.SortOrder,
			PenaltyWeight:    o.PenaltyWeight,
		})
	}

	return AuditItemDraft{
		QuestionID:   q.ID,
		TargetType:   q.TargetType,
		SpaceID:      spaceID,
		ElementID:    elementID,
		QuestionCode: q.Code,
		QuestionText: q.Text,
		AnswerType:   q.AnswerType,
		Category:     q.Category,
		Impact:       q.Impact,
		IsMandatory:  q.IsMandatory,
		Weight:       q.Weight,
		SortOrder:    q.SortOrder,
		Options:      opts,
	}
}
