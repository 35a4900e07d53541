package models

import "time"

// TemplateVersion is an immutable, versioned question catalog.
type TemplateVersion struct {
	ID          int64     `json:"id"`
	TemplateID  int64     `json:"template_id"`
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	IsDefault   bool      `json:"is_default"`
	PublishedAt time.Time `json:"published_at"`
}

// Question is one catalog question with its answer options. FollowUpOnly is
// set for questions that some follow-up rule spawns; they are never
// instantiated when an audit starts.
type Question struct {
	ID                int64              `json:"id"`
	TemplateVersionID int64              `json:"template_version_id"`
	Code              string             `json:"code"`
	Text              string             `json:"text"`
	AnswerType        AnswerType         `json:"answer_type"`
	Category          QuestionCategory   `json:"category"`
	Impact            ImpactLevel        `json:"impact"`
	TargetType        QuestionTargetType `json:"target_type"`
	SpaceTypeID       *int64             `json:"space_type_id,omitempty"`
	ElementTypeID     *int64             `json:"element_type_id,omitempty"`
	IsMandatory       bool               `json:"is_mandatory"`
	IsActive          bool               `json:"is_active"`
	FollowUpOnly      bool               `json:"follow_up_only"`
	Weight            float64            `json:"weight"`
	SortOrder         int                `json:"sort_order"`
	Options           []AnswerOption     `json:"options"`
}

// AnswerOption is a catalog answer option.
type AnswerOption struct {
	ID            int64   `json:"id"`
	QuestionID    int64   `json:"question_id"`
	Code          string  `json:"code"`
	Label         string  `json:"label"`
	SortOrder     int     `json:"sort_order"`
	PenaltyWeight float64 `json:"penalty_weight"`
}

// IncidenceTemplate is the catalog blueprint copied into an AuditIncidence.
type IncidenceTemplate struct {
	ID                int64             `json:"id"`
	Code              string            `json:"code"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	CorrectiveAction  string            `json:"corrective_action"`
	Category          QuestionCategory  `json:"category"`
	Severity          IncidenceSeverity `json:"severity"`
	NonConformityType NonConformityType `json:"non_conformity_type"`
	ResponsibleType   ResponsibleType   `json:"responsible_type"`
	ResolutionDays    int               `json:"resolution_days"`
}

// AutoIncidenceRule spawns an incidence when its answer option is selected.
type AutoIncidenceRule struct {
	ID                int64             `json:"id"`
	AnswerOptionID    int64             `json:"answer_option_id"`
	IncidenceTemplate IncidenceTemplate `json:"incidence_template"`
}

// FollowupRule spawns a child question when its answer option is selected.
type FollowupRule struct {
	ID             int64    `json:"id"`
	AnswerOptionID int64    `json:"answer_option_id"`
	ChildQuestion  Question `json:"child_question"`
	Required       bool     `json:"required"`
	SortOrder      int      `json:"sort_order"`
}
