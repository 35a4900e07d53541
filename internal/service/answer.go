package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/metrics"
	"github.com/persistorai/aptaudit/internal/models"
)

// AnswerProcessor records answers and applies their side effects atomically.
type AnswerProcessor struct {
	uow        UnitOfWork
	rules      *RuleEngine
	completion *CompletionTracker
	activity   ActivityEnqueuer
	now        Clock
	log        *logrus.Logger
}

// NewAnswerProcessor creates an AnswerProcessor.
func NewAnswerProcessor(
	uow UnitOfWork,
	rules *RuleEngine,
	completion *CompletionTracker,
	activity ActivityEnqueuer,
	now Clock,
	log *logrus.Logger,
) *AnswerProcessor {
	return &AnswerProcessor{
		uow:        uow,
		rules:      rules,
		completion: completion,
		activity:   activity,
		now:        now,
		log:        log,
	}
}

// Answer records the response for one item of an IN_PROGRESS audit. In the
// same transaction it links the selected options, runs the rule engine,
// attaches photos and recomputes the audit completion rate. Any failure
// leaves no trace.
func (p *AnswerProcessor) Answer(ctx context.Context, req models.AnswerRequest) (*models.AnswerResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result *models.AnswerResult

	err := p.uow.RunInTx(ctx, func(tx Tx) error {
		var err error
		result, err = p.answer(ctx, tx, req)

		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.AnswersRecorded.WithLabelValues(string(result.Item.AnswerType)).Inc()
	metrics.FollowUpsCreated.Add(float64(len(result.FollowUps)))

	for i := range result.Incidences {
		metrics.IncidencesCreated.WithLabelValues(string(result.Incidences[i].Severity)).Inc()
	}

	p.log.WithFields(logrus.Fields{
		"audit_id":        req.AuditID,
		"item_id":         req.AuditItemID,
		"incidences":      len(result.Incidences),
		"follow_ups":      len(result.FollowUps),
		"completion_rate": result.CompletionRate,
	}).Info("audit.answer")

	recordActivity(p.activity, "audit.answer", "audit_item", strconv.FormatInt(req.AuditItemID, 10), req.Actor, map[string]any{
		"audit_id":   req.AuditID,
		"incidences": len(result.Incidences),
		"follow_ups": len(result.FollowUps),
	})

	return result, nil
}

func (p *AnswerProcessor) answer(ctx context.Context, tx Tx, req models.AnswerRequest) (*models.AnswerResult, error) {
	audit, err := tx.LockAudit(ctx, req.AuditID)
	if err != nil {
		return nil, err
	}

	if !audit.Status.CanAnswer() {
		return nil, &models.InvalidAuditStatusError{AuditID: audit.ID, Status: audit.Status, Operation: "answer"}
	}

	item, err := tx.GetItem(ctx, req.AuditID, req.AuditItemID)
	if err != nil {
		return nil, err
	}

	if item.IsAnswered {
		return nil, models.ErrAlreadyAnswered
	}

	if err := req.Value.ValidateFor(item.AnswerType, req.SelectedOptionIDs, len(req.Photos)); err != nil {
		return nil, err
	}

	if err := checkOptionsBelong(item, req.SelectedOptionIDs); err != nil {
		return nil, err
	}

	now := p.now()

	if err := tx.MarkItemAnswered(ctx, req.AuditID, req.AuditItemID, now); err != nil {
		return nil, err
	}

	resp, err := tx.InsertResponse(ctx, models.AuditResponse{
		AuditID:           req.AuditID,
		AuditItemID:       req.AuditItemID,
		BoolValue:         req.Value.Bool,
		TextValue:         req.Value.Text,
		NumberValue:       req.Value.Number,
		Notes:             req.Notes,
		SelectedOptionIDs: req.SelectedOptionIDs,
		RespondedBy:       req.Actor,
		StartedAt:         req.StartedAt,
		CompletedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("recording response: %w", err)
	}

	if len(req.SelectedOptionIDs) > 0 {
		if err := tx.LinkSelectedOptions(ctx, resp.ID, req.SelectedOptionIDs); err != nil {
			return nil, fmt.Errorf("linking selected options: %w", err)
		}
	}

	answered := item.Answered(now)

	outcome, err := p.rules.Evaluate(ctx, tx, models.TargetContext{
		ApartmentID: audit.ApartmentID,
		AuditID:     audit.ID,
		Item:        &answered,
	}, req.SelectedOptionIDs)
	if err != nil {
		return nil, err
	}

	if len(req.Photos) > 0 {
		photos, err := tx.InsertPhotos(ctx, resp.ID, req.Photos)
		if err != nil {
			return nil, fmt.Errorf("attaching photos: %w", err)
		}

		resp.Photos = photos
	}

	rate, err := p.completion.recompute(ctx, tx, audit.ID)
	if err != nil {
		return nil, err
	}

	return &models.AnswerResult{
		Response:       *resp,
		Item:           answered,
		Incidences:     outcome.Incidences,
		FollowUps:      outcome.FollowUps,
		CompletionRate: rate,
	}, nil
}

// checkOptionsBelong rejects selections that are not options of item.
func checkOptionsBelong(item *models.AuditItem, selected []int64) error {
	if len(selected) == 0 {
		return nil
	}

	own := make(map[int64]struct{}, len(item.Options))
	for _, o := range item.Options {
		own[o.ID] = struct{}{}
	}

	for _, id := range selected {
		if _, ok := own[id]; !ok {
			return models.InvalidAnswerError("option %d does not belong to item %d", id, item.ID)
		}
	}

	return nil
}
