package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/models"
)

// RuleEngine derives incidences and follow-up items from selected answer options.
type RuleEngine struct {
	now Clock
	log *logrus.Logger
}

// NewRuleEngine creates a RuleEngine.
func NewRuleEngine(now Clock, log *logrus.Logger) *RuleEngine {
	return &RuleEngine{now: now, log: log}
}

// Evaluate runs both sub-rules for the template options behind selected.
// selected are audit-scoped option ids of tc.Item. Rules are read through tx.
func (r *RuleEngine) Evaluate(
	ctx context.Context, tx Tx, tc models.TargetContext, selected []int64,
) (*models.RuleOutcome, error) {
	out := &models.RuleOutcome{Incidences: []models.AuditIncidence{}, FollowUps: []models.AuditItem{}}
	if len(selected) == 0 {
		return out, nil
	}

	templateIDs := templateOptionIDs(tc.Item, selected)
	if len(templateIDs) == 0 {
		return out, nil
	}

	incidences, err := r.generateIncidences(ctx, tx, tc, templateIDs)
	if err != nil {
		return nil, err
	}

	followUps, err := r.generateFollowUps(ctx, tx, tc, templateIDs)
	if err != nil {
		return nil, err
	}

	out.Incidences = incidences
	out.FollowUps = followUps

	return out, nil
}

// generateIncidences creates one OPEN incidence per matching rule. It does not
// deduplicate; answers are single-shot per item.
func (r *RuleEngine) generateIncidences(
	ctx context.Context, tx Tx, tc models.TargetContext, optionIDs []int64,
) ([]models.AuditIncidence, error) {
	rules, err := tx.AutoIncidenceRulesByOptionIDs(ctx, optionIDs)
	if err != nil {
		return nil, fmt.Errorf("loading auto-incidence rules: %w", err)
	}

	created := make([]models.AuditIncidence, 0, len(rules))

	for i := range rules {
		inc, err := tx.InsertIncidence(ctx, models.NewIncidence(&rules[i], tc, r.now()))
		if err != nil {
			return nil, fmt.Errorf("creating incidence from rule %d: %w", rules[i].ID, err)
		}

		created = append(created, *inc)
	}

	return created, nil
}

// generateFollowUps creates at most one child item per (parent item, child
// question) pair, so repeated evaluation is idempotent. Rules whose child
// question is inactive are skipped, as they are at instantiation.
func (r *RuleEngine) generateFollowUps(
	ctx context.Context, tx Tx, tc models.TargetContext, optionIDs []int64,
) ([]models.AuditItem, error) {
	rules, err := tx.FollowupRulesByOptionIDs(ctx, optionIDs)
	if err != nil {
		return nil, fmt.Errorf("loading follow-up rules: %w", err)
	}

	created := make([]models.AuditItem, 0, len(rules))

	for i := range rules {
		rule := &rules[i]

		if !rule.ChildQuestion.IsActive {
			r.log.WithFields(logrus.Fields{
				"audit_id":    tc.AuditID,
				"rule_id":     rule.ID,
				"question_id": rule.ChildQuestion.ID,
			}).Debug("follow-up question inactive")

			continue
		}

		exists, err := tx.FollowUpExists(ctx, tc.Item.ID, rule.ChildQuestion.ID)
		if err != nil {
			return nil, fmt.Errorf("checking follow-up for item %d: %w", tc.Item.ID, err)
		}

		if exists {
			r.log.WithFields(logrus.Fields{
				"audit_id":    tc.AuditID,
				"parent_item": tc.Item.ID,
				"question_id": rule.ChildQuestion.ID,
			}).Debug("follow-up already exists")

			continue
		}

		item, ok, err := tx.InsertFollowUpItem(ctx, tc.AuditID, followUpDraft(rule, tc.Item))
		if err != nil {
			return nil, fmt.Errorf("creating follow-up from rule %d: %w", rule.ID, err)
		}

		if ok {
			created = append(created, *item)
		}
	}

	return created, nil
}

// followUpDraft snapshots the rule's child question, inheriting parent scope.
func followUpDraft(rule *models.FollowupRule, parent *models.AuditItem) models.AuditItemDraft {
	d := models.DraftFromQuestion(&rule.ChildQuestion, parent.SpaceID, parent.ElementID)
	d.TargetType = parent.TargetType
	d.IsMandatory = rule.Required || rule.ChildQuestion.IsMandatory
	d.SortOrder = rule.SortOrder
	d.ParentAuditItemID = &parent.ID

	return d
}

// templateOptionIDs translates audit-scoped option ids to their catalog origin.
func templateOptionIDs(item *models.AuditItem, selected []int64) []int64 {
	byID := make(map[int64]int64, len(item.Options))
	for _, o := range item.Options {
		byID[o.ID] = o.TemplateOptionID
	}

	out := make([]int64, 0, len(selected))
	for _, id := range selected {
		if tid, ok := byID[id]; ok {
			out = append(out, tid)
		}
	}

	return out
}
