package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/domain"
	"github.com/persistorai/aptaudit/internal/models"
)

// ActivityStore is the data-access interface ActivityService depends on.
// It reuses domain.ActivityService since the method sets are identical.
type ActivityStore = domain.ActivityService

var _ domain.ActivityService = (*ActivityService)(nil)

// ActivityService wraps ActivityStore with logging for destructive operations.
type ActivityService struct {
	store ActivityStore
	log   *logrus.Logger
}

// NewActivityService creates an ActivityService.
func NewActivityService(store ActivityStore, log *logrus.Logger) *ActivityService {
	return &ActivityService{store: store, log: log}
}

// RecordActivity inserts an activity entry (pass-through to store).
func (s *ActivityService) RecordActivity(
	ctx context.Context, action, entityType, entityID, actor string, detail map[string]any,
) error {
	return s.store.RecordActivity(ctx, action, entityType, entityID, actor, detail)
}

// QueryActivity returns activity entries matching the given filters (pass-through).
func (s *ActivityService) QueryActivity(
	ctx context.Context, opts models.ActivityQueryOpts,
) ([]models.ActivityEntry, bool, error) {
	return s.store.QueryActivity(ctx, opts)
}

// PurgeOldEntries deletes activity entries older than retentionDays and logs the result.
func (s *ActivityService) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	deleted, err := s.store.PurgeOldEntries(ctx, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("activity.purge")

	return deleted, nil
}
