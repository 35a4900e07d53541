package models

import (
	"math"
	"time"
)

// AnswerValue carries the type-appropriate value of an answer.
type AnswerValue struct {
	Bool   *bool    `json:"bool,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

// AuditResponse is the recorded answer for one audit item.
type AuditResponse struct {
	ID                int64        `json:"id"`
	AuditID           int64        `json:"audit_id"`
	AuditItemID       int64        `json:"audit_item_id"`
	BoolValue         *bool        `json:"bool_value,omitempty"`
	TextValue         *string      `json:"text_value,omitempty"`
	NumberValue       *float64     `json:"number_value,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	SelectedOptionIDs []int64      `json:"selected_option_ids"`
	Photos            []AuditPhoto `json:"photos"`
	RespondedBy       string       `json:"responded_by"`
	StartedAt         *time.Time   `json:"started_at,omitempty"`
	CompletedAt       time.Time    `json:"completed_at"`
}

// AuditPhoto is photo metadata attached to a response. Raw bytes live in the photo store.
type AuditPhoto struct {
	ID              int64     `json:"id"`
	AuditResponseID int64     `json:"audit_response_id"`
	URL             string    `json:"url"`
	StorageKey      string    `json:"storage_key"`
	ContentType     string    `json:"content_type,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	CreatedAt       time.Time `json:"created_at"`
}

// ValidateFor checks that v and the selection fit answer type t.
// photoCount is the number of photos supplied with the answer.
func (v AnswerValue) ValidateFor(t AnswerType, selected []int64, photoCount int) error {
	switch t {
	case AnswerBoolean:
		if v.Bool == nil {
			return InvalidAnswerError("boolean value required")
		}
	case AnswerText:
		if v.Text == nil || *v.Text == "" {
			return InvalidAnswerError("text value required")
		}

		if len(*v.Text) > 10000 {
			return ErrFieldTooLong("text", 10000)
		}
	case AnswerNumber:
		if v.Number == nil || math.IsNaN(*v.Number) || math.IsInf(*v.Number, 0) {
			return InvalidAnswerError("finite numeric value required")
		}
	case AnswerSingleChoice:
		if len(selected) != 1 {
			return InvalidAnswerError("exactly one option must be selected, got %d", len(selected))
		}
	case AnswerMultipleChoice:
		if len(selected) == 0 {
			return InvalidAnswerError("at least one option must be selected")
		}
	case AnswerPhoto:
		if photoCount == 0 {
			return InvalidAnswerError("at least one photo required")
		}
	default:
		return InvalidAnswerError("unknown answer type %q", t)
	}

	return nil
}

// AnswerResult is everything an answer produced inside its transaction.
type AnswerResult struct {
	Response       AuditResponse    `json:"response"`
	Item           AuditItem        `json:"item"`
	Incidences     []AuditIncidence `json:"incidences"`
	FollowUps      []AuditItem      `json:"follow_ups"`
	CompletionRate float64          `json:"completion_rate"`
}
