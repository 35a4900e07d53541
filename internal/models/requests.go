package models

import (
	"path"
	"strings"
	"time"
)

// Field length limits shared by request validators.
const (
	maxActorLen  = 255
	maxNotesLen  = 10000
	maxReasonLen = 2000
	maxSelected  = 100
	maxPhotos    = 20
	maxKeyLen    = 512
	maxURLLen    = 2048
)

// DefaultActor is used when a caller does not identify itself.
const DefaultActor = "system"

// StartAuditRequest is the payload for starting an audit.
type StartAuditRequest struct {
	ApartmentID       int64  `json:"apartment_id" binding:"required,gt=0"`
	TemplateVersionID *int64 `json:"template_version_id,omitempty" binding:"omitempty,gt=0"`
	Actor             string `json:"-"`
}

// Validate checks StartAuditRequest fields.
func (r *StartAuditRequest) Validate() error {
	if r.ApartmentID <= 0 {
		return ErrMissingApartmentID
	}

	return validateActor(&r.Actor)
}

// PhotoUpload is photo metadata produced by the photo store.
type PhotoUpload struct {
	URL         string `json:"url"`
	StorageKey  string `json:"storage_key"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
}

// AnswerRequest is the payload for answering one audit item. Photos are set
// by the photo store from multipart uploads and never decoded from JSON.
type AnswerRequest struct {
	AuditID           int64         `json:"-"`
	AuditItemID       int64         `json:"-"`
	Value             AnswerValue   `json:"value"`
	SelectedOptionIDs []int64       `json:"selected_option_ids,omitempty" binding:"max=100,dive,gt=0"`
	Notes             string        `json:"notes,omitempty"`
	Photos            []PhotoUpload `json:"-"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	Actor             string        `json:"-"`
}

// Validate checks AnswerRequest size limits. Type-specific checks happen
// once the item's answer type is known.
func (r *AnswerRequest) Validate() error {
	if len(r.Notes) > maxNotesLen {
		return ErrFieldTooLong("notes", maxNotesLen)
	}

	if len(r.SelectedOptionIDs) > maxSelected {
		return InvalidAnswerError("at most %d options may be selected", maxSelected)
	}

	if len(r.Photos) > maxPhotos {
		return InvalidAnswerError("at most %d photos may be attached", maxPhotos)
	}

	for i := range r.Photos {
		if err := r.Photos[i].validate(); err != nil {
			return err
		}
	}

	seen := make(map[int64]struct{}, len(r.SelectedOptionIDs))
	for _, id := range r.SelectedOptionIDs {
		if _, dup := seen[id]; dup {
			return InvalidAnswerError("option %d selected twice", id)
		}

		seen[id] = struct{}{}
	}

	return validateActor(&r.Actor)
}

// validate checks that p looks like metadata produced by the photo store.
func (p *PhotoUpload) validate() error {
	switch {
	case p.StorageKey == "" || p.URL == "":
		return InvalidAnswerError("photo url and storage_key are required")
	case len(p.StorageKey) > maxKeyLen:
		return ErrFieldTooLong("storage_key", maxKeyLen)
	case len(p.URL) > maxURLLen:
		return ErrFieldTooLong("url", maxURLLen)
	case strings.HasPrefix(p.StorageKey, "/") || path.Clean(p.StorageKey) != p.StorageKey ||
		strings.HasPrefix(p.StorageKey, ".."):
		return InvalidAnswerError("photo storage_key %q is not a relative key", p.StorageKey)
	case p.SizeBytes < 0:
		return InvalidAnswerError("photo size_bytes must not be negative")
	}

	return nil
}

// CancelAuditRequest is the payload for cancelling an audit.
type CancelAuditRequest struct {
	Reason string `json:"reason" binding:"max=2000"`
}

// Validate checks CancelAuditRequest fields.
func (r *CancelAuditRequest) Validate() error {
	if len(r.Reason) > maxReasonLen {
		return ErrFieldTooLong("reason", maxReasonLen)
	}

	return nil
}

func validateActor(actor *string) error {
	if *actor == "" {
		*actor = DefaultActor
	}

	if len(*actor) > maxActorLen {
		return ErrFieldTooLong("actor", maxActorLen)
	}

	return nil
}
