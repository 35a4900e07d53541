package api_test

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

// mockLifecycle implements api.AuditLifecycle for testing.
type mockLifecycle struct {
	startFn    func(ctx context.Context, req models.StartAuditRequest) (*models.AuditDetail, error)
	completeFn func(ctx context.Context, auditID int64, actor string) (*models.Audit, error)
	cancelFn   func(ctx context.Context, auditID int64, actor, reason string) (*models.Audit, error)
}

func (m *mockLifecycle) StartAudit(ctx context.Context, req models.StartAuditRequest) (*models.AuditDetail, error) {
	return m.startFn(ctx, req)
}

func (m *mockLifecycle) CompleteAudit(ctx context.Context, auditID int64, actor string) (*models.Audit, error) {
	return m.completeFn(ctx, auditID, actor)
}

func (m *mockLifecycle) CancelAudit(ctx context.Context, auditID int64, actor, reason string) (*models.Audit, error) {
	return m.cancelFn(ctx, auditID, actor, reason)
}

// mockAnswers implements api.AnswerService for testing.
type mockAnswers struct {
	answerFn func(ctx context.Context, req models.AnswerRequest) (*models.AnswerResult, error)
}

func (m *mockAnswers) AnswerItem(ctx context.Context, req models.AnswerRequest) (*models.AnswerResult, error) {
	return m.answerFn(ctx, req)
}

// mockQuery implements api.AuditQueryService for testing.
type mockQuery struct {
	getFn        func(ctx context.Context, auditID int64) (*models.AuditDetail, error)
	getByUUIDFn  func(ctx context.Context, id string) (*models.AuditDetail, error)
	listFn       func(ctx context.Context, apartmentID int64, status models.AuditStatus, limit, offset int) ([]models.Audit, bool, error)
	responseFn   func(ctx context.Context, auditID, itemID int64) (*models.AuditResponse, error)
	incidencesFn func(ctx context.Context, auditID int64) ([]models.AuditIncidence, error)
	historyFn    func(ctx context.Context, auditID int64) ([]models.AuditStatusHistory, error)
	summaryFn    func(ctx context.Context, auditID int64) (*models.AuditSummary, error)
}

func (m *mockQuery) GetAudit(ctx context.Context, auditID int64) (*models.AuditDetail, error) {
	return m.getFn(ctx, auditID)
}

func (m *mockQuery) GetAuditByUUID(ctx context.Context, id string) (*models.AuditDetail, error) {
	return m.getByUUIDFn(ctx, id)
}

func (m *mockQuery) ListAudits(ctx context.Context, apartmentID int64, status models.AuditStatus, limit, offset int) ([]models.Audit, bool, error) {
	return m.listFn(ctx, apartmentID, status, limit, offset)
}

func (m *mockQuery) GetResponse(ctx context.Context, auditID, itemID int64) (*models.AuditResponse, error) {
	return m.responseFn(ctx, auditID, itemID)
}

func (m *mockQuery) ListIncidences(ctx context.Context, auditID int64) ([]models.AuditIncidence, error) {
	return m.incidencesFn(ctx, auditID)
}

func (m *mockQuery) ListStatusHistory(ctx context.Context, auditID int64) ([]models.AuditStatusHistory, error) {
	return m.historyFn(ctx, auditID)
}

func (m *mockQuery) Summary(ctx context.Context, auditID int64) (*models.AuditSummary, error) {
	return m.summaryFn(ctx, auditID)
}

// mockActivity implements api.ActivityRepository for testing.
type mockActivity struct {
	queryFn func(ctx context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error)
	purgeFn func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockActivity) QueryActivity(ctx context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error) {
	return m.queryFn(ctx, opts)
}

func (m *mockActivity) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}

// mockPhotos implements api.PhotoUploader and records deletions.
type mockPhotos struct {
	uploadFn func(ctx context.Context, files []service.PhotoFile) ([]models.PhotoUpload, error)
	deleted  []string
}

func (m *mockPhotos) UploadPhotos(ctx context.Context, files []service.PhotoFile) ([]models.PhotoUpload, error) {
	return m.uploadFn(ctx, files)
}

func (m *mockPhotos) Delete(_ context.Context, storageKeys []string) error {
	m.deleted = append(m.deleted, storageKeys...)
	return nil
}

// mockPool implements api.HealthChecker.
type mockPool struct {
	healthErr error
	schemaErr error
}

func (m *mockPool) HealthCheck(_ context.Context) error { return m.healthErr }

func (m *mockPool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return mockRow{err: m.schemaErr}
}

type mockRow struct{ err error }

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	if len(dest) == 1 {
		if b, ok := dest[0].(*bool); ok {
			*b = true
			return nil
		}
	}

	return errors.New("unexpected scan target")
}
