package api

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/domain"
	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

// AuditLifecycle defines the state-changing operations used by AuditHandler.
type AuditLifecycle = domain.AuditLifecycle

// AnswerService records answers for AnswerHandler.
type AnswerService = domain.AnswerService

// AuditQueryService defines the read operations used by the audit handlers.
type AuditQueryService = domain.AuditQueryService

// ActivityRepository defines activity log operations used by ActivityHandler.
type ActivityRepository interface {
	QueryActivity(ctx context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// PhotoUploader stores multipart photo files before an answer is recorded.
type PhotoUploader = service.PhotoUploader

// HealthChecker reports database reachability and answers schema probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
