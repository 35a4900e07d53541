// Package models defines data types for the apartment audit engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit is one execution of a checklist against one apartment.
type Audit struct {
	ID                int64       `json:"id"`
	UUID              uuid.UUID   `json:"uuid"`
	ApartmentID       int64       `json:"apartment_id"`
	TemplateVersionID int64       `json:"template_version_id"`
	Status            AuditStatus `json:"status"`
	CompletionRate    float64     `json:"completion_rate"`
	StartedAt         *time.Time  `json:"started_at,omitempty"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	CancelledAt       *time.Time  `json:"cancelled_at,omitempty"`
	CreatedBy         string      `json:"created_by"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// WithStatus returns a copy of a moved to status next at time now, stamping
// the lifecycle timestamp that belongs to next.
func (a Audit) WithStatus(next AuditStatus, now time.Time) Audit {
	a.Status = next
	a.UpdatedAt = now

	switch next {
	case AuditStatusInProgress:
		if a.StartedAt == nil {
			a.StartedAt = &now
		}
	case AuditStatusCompleted:
		a.CompletedAt = &now
		a.CompletionRate = 100
	case AuditStatusCancelled:
		a.CancelledAt = &now
	}

	return a
}

// AuditStatusHistory is one append-only status transition record.
type AuditStatusHistory struct {
	ID         int64        `json:"id"`
	AuditID    int64        `json:"audit_id"`
	FromStatus *AuditStatus `json:"from_status,omitempty"`
	ToStatus   AuditStatus  `json:"to_status"`
	Actor      string       `json:"actor"`
	Reason     string       `json:"reason,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// AuditDetail bundles an audit with its current items.
type AuditDetail struct {
	Audit
	Items []AuditItem `json:"items"`
}

// AuditSummary is a read-side roll-up of an audit's progress.
type AuditSummary struct {
	AuditID               int64                     `json:"audit_id"`
	Status                AuditStatus               `json:"status"`
	CompletionRate        float64                   `json:"completion_rate"`
	TotalItems            int                       `json:"total_items"`
	AnsweredItems         int                       `json:"answered_items"`
	PendingMandatoryItems int                       `json:"pending_mandatory_items"`
	FollowUpItems         int                       `json:"follow_up_items"`
	OpenIncidences        int                       `json:"open_incidences"`
	IncidencesBySeverity  map[IncidenceSeverity]int `json:"incidences_by_severity"`
}

// AuditChange is the notification published when a transaction touching an
// audit commits.
type AuditChange struct {
	AuditID        int64       `json:"audit_id"`
	Type           string      `json:"type"`
	Status         AuditStatus `json:"status"`
	CompletionRate float64     `json:"completion_rate"`
}
