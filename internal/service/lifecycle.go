package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/metrics"
	"github.com/persistorai/aptaudit/internal/models"
)

// LifecycleManager owns the audit status state machine and its history.
type LifecycleManager struct {
	uow          UnitOfWork
	instantiator *Instantiator
	activity     ActivityEnqueuer
	now          Clock
	log          *logrus.Logger
}

// NewLifecycleManager creates a LifecycleManager.
func NewLifecycleManager(
	uow UnitOfWork,
	instantiator *Instantiator,
	activity ActivityEnqueuer,
	now Clock,
	log *logrus.Logger,
) *LifecycleManager {
	return &LifecycleManager{
		uow:          uow,
		instantiator: instantiator,
		activity:     activity,
		now:          now,
		log:          log,
	}
}

// Start creates an audit for an apartment, instantiates its items and moves it
// to IN_PROGRESS. It fails with *models.ActiveAuditConflictError when the
// apartment already has an IN_PROGRESS audit.
func (m *LifecycleManager) Start(ctx context.Context, req models.StartAuditRequest) (*models.AuditDetail, error) {
	var detail *models.AuditDetail

	err := m.uow.RunInTx(ctx, func(tx Tx) error {
		var err error
		detail, err = m.start(ctx, tx, req)

		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.AuditsStarted.Inc()

	m.log.WithFields(logrus.Fields{
		"audit_id":     detail.ID,
		"apartment_id": detail.ApartmentID,
		"template":     detail.TemplateVersionID,
		"items":        len(detail.Items),
	}).Info("audit.start")

	recordActivity(m.activity, "audit.start", "audit", strconv.FormatInt(detail.ID, 10), req.Actor, map[string]any{
		"apartment_id":        detail.ApartmentID,
		"template_version_id": detail.TemplateVersionID,
		"items":               len(detail.Items),
	})

	return detail, nil
}

func (m *LifecycleManager) start(ctx context.Context, tx Tx, req models.StartAuditRequest) (*models.AuditDetail, error) {
	if err := tx.LockApartment(ctx, req.ApartmentID); err != nil {
		return nil, err
	}

	existing, err := tx.FindInProgressAudit(ctx, req.ApartmentID)
	if err != nil {
		return nil, fmt.Errorf("checking active audit: %w", err)
	}

	if existing != nil {
		return nil, &models.ActiveAuditConflictError{ApartmentID: req.ApartmentID, ExistingAuditID: existing.ID}
	}

	version, err := resolveVersion(ctx, tx, req.TemplateVersionID)
	if err != nil {
		return nil, err
	}

	graph, err := tx.ApartmentWithSpacesAndElements(ctx, req.ApartmentID)
	if err != nil {
		return nil, fmt.Errorf("loading apartment graph: %w", err)
	}

	now := m.now()

	audit, err := tx.InsertAudit(ctx, models.Audit{
		UUID:              uuid.New(),
		ApartmentID:       req.ApartmentID,
		TemplateVersionID: version.ID,
		Status:            models.AuditStatusDraft,
		CreatedBy:         req.Actor,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating audit: %w", err)
	}

	if err := tx.AppendStatusHistory(ctx, models.AuditStatusHistory{
		AuditID:   audit.ID,
		ToStatus:  models.AuditStatusDraft,
		Actor:     req.Actor,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("recording audit creation: %w", err)
	}

	drafts, err := m.instantiator.Instantiate(ctx, tx, version.ID, graph)
	if err != nil {
		return nil, err
	}

	items, err := tx.InsertItems(ctx, audit.ID, drafts)
	if err != nil {
		return nil, fmt.Errorf("persisting audit items: %w", err)
	}

	promoted, err := m.transition(ctx, tx, audit, models.AuditStatusInProgress, req.Actor, "")
	if err != nil {
		return nil, err
	}

	return &models.AuditDetail{Audit: *promoted, Items: items}, nil
}

// resolveVersion returns the explicit template version or the catalog default.
func resolveVersion(ctx context.Context, catalog Catalog, id *int64) (*models.TemplateVersion, error) {
	if id != nil {
		v, err := catalog.TemplateVersionByID(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("resolving template version %d: %w", *id, err)
		}

		return v, nil
	}

	v, err := catalog.DefaultTemplateVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving default template version: %w", err)
	}

	return v, nil
}

// Complete closes an IN_PROGRESS audit whose mandatory items are all answered.
func (m *LifecycleManager) Complete(ctx context.Context, auditID int64, actor string) (*models.Audit, error) {
	actor = actorOrDefault(actor)

	var audit *models.Audit

	err := m.uow.RunInTx(ctx, func(tx Tx) error {
		current, err := tx.LockAudit(ctx, auditID)
		if err != nil {
			return err
		}

		if !current.Status.CanComplete() {
			return &models.InvalidAuditStatusError{AuditID: auditID, Status: current.Status, Operation: "complete"}
		}

		missing, err := tx.CountUnansweredMandatory(ctx, auditID)
		if err != nil {
			return fmt.Errorf("counting unanswered mandatory items: %w", err)
		}

		if missing > 0 {
			return &models.IncompleteAuditError{AuditID: auditID, Missing: missing}
		}

		audit, err = m.transition(ctx, tx, current, models.AuditStatusCompleted, actor, "")

		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.AuditsCompleted.Inc()
	m.log.WithField("audit_id", auditID).Info("audit.complete")
	recordActivity(m.activity, "audit.complete", "audit", strconv.FormatInt(auditID, 10), actor, nil)

	return audit, nil
}

// Cancel abandons a DRAFT or IN_PROGRESS audit.
func (m *LifecycleManager) Cancel(ctx context.Context, auditID int64, actor, reason string) (*models.Audit, error) {
	actor = actorOrDefault(actor)

	var audit *models.Audit

	err := m.uow.RunInTx(ctx, func(tx Tx) error {
		current, err := tx.LockAudit(ctx, auditID)
		if err != nil {
			return err
		}

		if !current.Status.CanCancel() {
			return &models.InvalidAuditStatusError{AuditID: auditID, Status: current.Status, Operation: "cancel"}
		}

		audit, err = m.transition(ctx, tx, current, models.AuditStatusCancelled, actor, reason)

		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.AuditsCancelled.Inc()
	m.log.WithFields(logrus.Fields{"audit_id": auditID, "reason": reason}).Info("audit.cancel")
	recordActivity(m.activity, "audit.cancel", "audit", strconv.FormatInt(auditID, 10), actor, map[string]any{"reason": reason})

	return audit, nil
}

// transition moves a to next and appends the history row.
func (m *LifecycleManager) transition(
	ctx context.Context, tx Tx, a *models.Audit, next models.AuditStatus, actor, reason string,
) (*models.Audit, error) {
	if !a.Status.CanTransitionTo(next) {
		return nil, &models.InvalidAuditStatusError{AuditID: a.ID, Status: a.Status, Operation: "move to " + string(next)}
	}

	now := m.now()

	updated, err := tx.UpdateAuditStatus(ctx, a.WithStatus(next, now))
	if err != nil {
		return nil, fmt.Errorf("updating audit status: %w", err)
	}

	from := a.Status
	if err := tx.AppendStatusHistory(ctx, models.AuditStatusHistory{
		AuditID:    a.ID,
		FromStatus: &from,
		ToStatus:   next,
		Actor:      actor,
		Reason:     reason,
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("recording status history: %w", err)
	}

	return updated, nil
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return models.DefaultActor
	}

	return actor
}
