package client

import "time"

// Audit statuses.
const (
	StatusDraft      = "DRAFT"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// Audit is one checklist execution against an apartment.
type Audit struct {
	ID                int64      `json:"id"`
	UUID              string     `json:"uuid"`
	ApartmentID       int64      `json:"apartment_id"`
	TemplateVersionID int64      `json:"template_version_id"`
	Status            string     `json:"status"`
	CompletionRate    float64    `json:"completion_rate"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AuditDetail is an audit with its items.
type AuditDetail struct {
	Audit
	Items []AuditItem `json:"items"`
}

// AuditItem is one question to answer within an audit.
type AuditItem struct {
	ID                int64          `json:"id"`
	AuditID           int64          `json:"audit_id"`
	QuestionID        int64          `json:"question_id"`
	TargetType        string         `json:"target_type"`
	SpaceID           *int64         `json:"space_id,omitempty"`
	ElementID         *int64         `json:"element_id,omitempty"`
	QuestionCode      string         `json:"question_code"`
	QuestionText      string         `json:"question_text"`
	AnswerType        string         `json:"answer_type"`
	Category          string         `json:"category"`
	Impact            string         `json:"impact"`
	IsMandatory       bool           `json:"is_mandatory"`
	Weight            float64        `json:"weight"`
	SortOrder         int            `json:"sort_order"`
	IsAnswered        bool           `json:"is_answered"`
	IsVisible         bool           `json:"is_visible"`
	ParentAuditItemID *int64         `json:"parent_audit_item_id,omitempty"`
	AnsweredAt        *time.Time     `json:"answered_at,omitempty"`
	Options           []AnswerOption `json:"options"`
}

// AnswerOption is a selectable option of an audit item.
type AnswerOption struct {
	ID               int64   `json:"id"`
	TemplateOptionID int64   `json:"template_option_id"`
	Code             string  `json:"code"`
	Label            string  `json:"label"`
	SortOrder        int     `json:"sort_order"`
	PenaltyWeight    float64 `json:"penalty_weight"`
}

// StartAuditRequest is the payload for starting an audit.
type StartAuditRequest struct {
	ApartmentID       int64  `json:"apartment_id"`
	TemplateVersionID *int64 `json:"template_version_id,omitempty"`
}

// AnswerValue holds the typed answer value. Set exactly the field that
// matches the item's answer type.
type AnswerValue struct {
	Bool   *bool    `json:"bool,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

// AnswerRequest is the payload for answering an item.
type AnswerRequest struct {
	Value             AnswerValue `json:"value"`
	SelectedOptionIDs []int64     `json:"selected_option_ids,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	StartedAt         *time.Time  `json:"started_at,omitempty"`
}

// Photo is photo metadata attached to a response.
type Photo struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	StorageKey  string `json:"storage_key"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Response is the recorded answer of an item.
type Response struct {
	ID                int64      `json:"id"`
	AuditID           int64      `json:"audit_id"`
	AuditItemID       int64      `json:"audit_item_id"`
	BoolValue         *bool      `json:"bool_value,omitempty"`
	TextValue         *string    `json:"text_value,omitempty"`
	NumberValue       *float64   `json:"number_value,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	SelectedOptionIDs []int64    `json:"selected_option_ids"`
	Photos            []Photo    `json:"photos"`
	RespondedBy       string     `json:"responded_by"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       time.Time  `json:"completed_at"`
}

// Incidence is a non-conformity raised while answering.
type Incidence struct {
	ID                int64      `json:"id"`
	UUID              string     `json:"uuid"`
	AuditID           int64      `json:"audit_id"`
	AuditItemID       int64      `json:"audit_item_id"`
	ApartmentID       int64      `json:"apartment_id"`
	SpaceID           *int64     `json:"space_id,omitempty"`
	ElementID         *int64     `json:"element_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	CorrectiveAction  string     `json:"corrective_action,omitempty"`
	Category          string     `json:"category"`
	Severity          string     `json:"severity"`
	NonConformityType string     `json:"non_conformity_type"`
	ResponsibleType   string     `json:"responsible_type"`
	Status            string     `json:"status"`
	DueAt             *time.Time `json:"due_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// AnswerResult reports everything an answer produced.
type AnswerResult struct {
	Response       Response    `json:"response"`
	Item           AuditItem   `json:"item"`
	Incidences     []Incidence `json:"incidences"`
	FollowUps      []AuditItem `json:"follow_ups"`
	CompletionRate float64     `json:"completion_rate"`
}

// StatusChange is one entry of an audit's status history.
type StatusChange struct {
	ID         int64     `json:"id"`
	AuditID    int64     `json:"audit_id"`
	FromStatus *string   `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary is the progress roll-up of an audit.
type Summary struct {
	AuditID               int64          `json:"audit_id"`
	Status                string         `json:"status"`
	CompletionRate        float64        `json:"completion_rate"`
	TotalItems            int            `json:"total_items"`
	AnsweredItems         int            `json:"answered_items"`
	PendingMandatoryItems int            `json:"pending_mandatory_items"`
	FollowUpItems         int            `json:"follow_up_items"`
	OpenIncidences        int            `json:"open_incidences"`
	IncidencesBySeverity  map[string]int `json:"incidences_by_severity"`
}

// ActivityEntry is one activity log record.
type ActivityEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActivityQueryOptions filters activity log queries.
type ActivityQueryOptions struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// ListOptions paginates and filters audit lists.
type ListOptions struct {
	Status string
	Limit  int
	Offset int
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
