// Package service implements the audit engine: question instantiation, the
// audit lifecycle, answer processing, rule evaluation and completion tracking.
//
// Every engine operation runs inside a single UnitOfWork transaction, reads
// included: catalog and apartment lookups go through the same Tx as the
// writes, so an operation holds exactly one database connection. Helpers that
// participate in an operation receive the transaction handle explicitly;
// nothing is bound to ambient context state.
package service

import (
	"context"
	"io"
	"time"

	"github.com/persistorai/aptaudit/internal/models"
)

// Catalog reads the versioned question catalog. Template versions are immutable.
type Catalog interface {
	DefaultTemplateVersion(ctx context.Context) (*models.TemplateVersion, error)
	TemplateVersionByID(ctx context.Context, id int64) (*models.TemplateVersion, error)
	QuestionsByTemplateVersion(ctx context.Context, versionID int64) ([]models.Question, error)
	AutoIncidenceRulesByOptionIDs(ctx context.Context, optionIDs []int64) ([]models.AutoIncidenceRule, error)
	FollowupRulesByOptionIDs(ctx context.Context, optionIDs []int64) ([]models.FollowupRule, error)
}

// ApartmentGraph reads an apartment's space/element composition.
type ApartmentGraph interface {
	ApartmentWithSpacesAndElements(ctx context.Context, apartmentID int64) (*models.ApartmentGraph, error)
}

// UnitOfWork runs fn inside one transaction. A non-nil error from fn, a panic,
// or a cancelled context rolls back every write made through tx.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of repository operations available inside a transaction.
type Tx interface {
	Catalog
	ApartmentGraph

	// LockApartment serializes audit creation for one apartment.
	LockApartment(ctx context.Context, apartmentID int64) error
	// FindInProgressAudit returns nil, nil when the apartment has no IN_PROGRESS audit.
	FindInProgressAudit(ctx context.Context, apartmentID int64) (*models.Audit, error)
	InsertAudit(ctx context.Context, a models.Audit) (*models.Audit, error)
	// LockAudit loads an audit and holds its row lock until the transaction ends.
	LockAudit(ctx context.Context, auditID int64) (*models.Audit, error)
	UpdateAuditStatus(ctx context.Context, a models.Audit) (*models.Audit, error)
	UpdateCompletionRate(ctx context.Context, auditID int64, rate float64) error
	AppendStatusHistory(ctx context.Context, h models.AuditStatusHistory) error

	InsertItems(ctx context.Context, auditID int64, drafts []models.AuditItemDraft) ([]models.AuditItem, error)
	// InsertFollowUpItem returns created=false when the (parent, question) pair already exists.
	InsertFollowUpItem(ctx context.Context, auditID int64, draft models.AuditItemDraft) (item *models.AuditItem, created bool, err error)
	FollowUpExists(ctx context.Context, parentItemID, questionID int64) (bool, error)
	GetItem(ctx context.Context, auditID, itemID int64) (*models.AuditItem, error)
	// MarkItemAnswered flips is_answered only if it is still false; ErrAlreadyAnswered otherwise.
	MarkItemAnswered(ctx context.Context, auditID, itemID int64, at time.Time) error
	CountItems(ctx context.Context, auditID int64) (total, answered int, err error)
	CountUnansweredMandatory(ctx context.Context, auditID int64) (int, error)

	InsertResponse(ctx context.Context, r models.AuditResponse) (*models.AuditResponse, error)
	LinkSelectedOptions(ctx context.Context, responseID int64, optionIDs []int64) error
	InsertPhotos(ctx context.Context, responseID int64, photos []models.PhotoUpload) ([]models.AuditPhoto, error)
	InsertIncidence(ctx context.Context, inc models.AuditIncidence) (*models.AuditIncidence, error)
}

// AuditReader serves the read side of audits outside of engine transactions.
type AuditReader interface {
	GetAudit(ctx context.Context, auditID int64) (*models.Audit, error)
	GetAuditByUUID(ctx context.Context, id string) (*models.Audit, error)
	ListAudits(ctx context.Context, apartmentID int64, status models.AuditStatus, limit, offset int) ([]models.Audit, bool, error)
	ListItems(ctx context.Context, auditID int64) ([]models.AuditItem, error)
	GetResponse(ctx context.Context, auditID, itemID int64) (*models.AuditResponse, error)
	ListIncidences(ctx context.Context, auditID int64) ([]models.AuditIncidence, error)
	ListStatusHistory(ctx context.Context, auditID int64) ([]models.AuditStatusHistory, error)
}

// PhotoFile is one photo received by the HTTP layer, not yet stored.
type PhotoFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PhotoUploader stores photo files and returns their metadata. Delete removes
// stored files again when the answer they belong to could not be recorded.
type PhotoUploader interface {
	UploadPhotos(ctx context.Context, files []PhotoFile) ([]models.PhotoUpload, error)
	Delete(ctx context.Context, storageKeys []string) error
}

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
