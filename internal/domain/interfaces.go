// Package domain defines the canonical service interfaces shared by the REST
// layer and the service implementations. Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/aptaudit/internal/models"
)

// AuditLifecycle defines the state-changing audit operations.
type AuditLifecycle interface {
	StartAudit(ctx context.Context, req models.StartAuditRequest) (*models.AuditDetail, error)
	CompleteAudit(ctx context.Context, auditID int64, actor string) (*models.Audit, error)
	CancelAudit(ctx context.Context, auditID int64, actor, reason string) (*models.Audit, error)
}

// AnswerService records answers for audit items.
type AnswerService interface {
	AnswerItem(ctx context.Context, req models.AnswerRequest) (*models.AnswerResult, error)
}

// AuditQueryService defines read-only audit operations.
type AuditQueryService interface {
	GetAudit(ctx context.Context, auditID int64) (*models.AuditDetail, error)
	GetAuditByUUID(ctx context.Context, id string) (*models.AuditDetail, error)
	ListAudits(ctx context.Context, apartmentID int64, status models.AuditStatus, limit, offset int) ([]models.Audit, bool, error)
	GetResponse(ctx context.Context, auditID, itemID int64) (*models.AuditResponse, error)
	ListIncidences(ctx context.Context, auditID int64) ([]models.AuditIncidence, error)
	ListStatusHistory(ctx context.Context, auditID int64) ([]models.AuditStatusHistory, error)
	Summary(ctx context.Context, auditID int64) (*models.AuditSummary, error)
}

// ActivityService defines activity log operations.
type ActivityService interface {
	RecordActivity(ctx context.Context, action, entityType, entityID, actor string, detail map[string]any) error
	QueryActivity(ctx context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}
