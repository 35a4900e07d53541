package service

import (
	"context"
	"fmt"

	"github.com/persistorai/aptaudit/internal/domain"
	"github.com/persistorai/aptaudit/internal/models"
)

var _ domain.AuditQueryService = (*QueryService)(nil)

// QueryService serves audit reads. It never takes row locks.
type QueryService struct {
	reader AuditReader
}

// NewQueryService creates a QueryService.
func NewQueryService(reader AuditReader) *QueryService {
	return &QueryService{reader: reader}
}

// GetAudit returns an audit with its items.
func (s *QueryService) GetAudit(ctx context.Context, auditID int64) (*models.AuditDetail, error) {
	a, err := s.reader.GetAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}

	return s.withItems(ctx, a)
}

// GetAuditByUUID returns an audit with its items by public identifier.
func (s *QueryService) GetAuditByUUID(ctx context.Context, id string) (*models.AuditDetail, error) {
	a, err := s.reader.GetAuditByUUID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.withItems(ctx, a)
}

func (s *QueryService) withItems(ctx context.Context, a *models.Audit) (*models.AuditDetail, error) {
	items, err := s.reader.ListItems(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("listing items of audit %d: %w", a.ID, err)
	}

	return &models.AuditDetail{Audit: *a, Items: items}, nil
}

// ListAudits returns audits of an apartment, newest first.
func (s *QueryService) ListAudits(
	ctx context.Context, apartmentID int64, status models.AuditStatus, limit, offset int,
) ([]models.Audit, bool, error) {
	return s.reader.ListAudits(ctx, apartmentID, status, limit, offset)
}

// GetResponse returns the recorded answer of an item.
func (s *QueryService) GetResponse(ctx context.Context, auditID, itemID int64) (*models.AuditResponse, error) {
	return s.reader.GetResponse(ctx, auditID, itemID)
}

// ListIncidences returns the incidences raised during an audit.
func (s *QueryService) ListIncidences(ctx context.Context, auditID int64) ([]models.AuditIncidence, error) {
	if _, err := s.reader.GetAudit(ctx, auditID); err != nil {
		return nil, err
	}

	return s.reader.ListIncidences(ctx, auditID)
}

// ListStatusHistory returns an audit's transitions in chronological order.
func (s *QueryService) ListStatusHistory(ctx context.Context, auditID int64) ([]models.AuditStatusHistory, error) {
	if _, err := s.reader.GetAudit(ctx, auditID); err != nil {
		return nil, err
	}

	return s.reader.ListStatusHistory(ctx, auditID)
}

// Summary rolls up item and incidence counts for an audit.
func (s *QueryService) Summary(ctx context.Context, auditID int64) (*models.AuditSummary, error) {
	detail, err := s.GetAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}

	incidences, err := s.reader.ListIncidences(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("listing incidences of audit %d: %w", auditID, err)
	}

	return Summarize(detail, incidences), nil
}

// Summarize computes an AuditSummary from an audit's items and incidences.
func Summarize(detail *models.AuditDetail, incidences []models.AuditIncidence) *models.AuditSummary {
	sum := &models.AuditSummary{
		AuditID:              detail.ID,
		Status:               detail.Status,
		CompletionRate:       detail.CompletionRate,
		TotalItems:           len(detail.Items),
		IncidencesBySeverity: make(map[models.IncidenceSeverity]int),
	}

	for i := range detail.Items {
		item := &detail.Items[i]

		switch {
		case item.IsAnswered:
			sum.AnsweredItems++
		case item.IsMandatory:
			sum.PendingMandatoryItems++
		}

		if item.IsFollowUp() {
			sum.FollowUpItems++
		}
	}

	for i := range incidences {
		sum.IncidencesBySeverity[incidences[i].Severity]++

		if incidences[i].Status == models.IncidenceOpen {
			sum.OpenIncidences++
		}
	}

	return sum
}
