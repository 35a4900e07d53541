package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

var _ service.Catalog = (*catalogReader)(nil)

const versionColumns = `id, template_id, name, version, is_default, published_at`

const questionColumns = `q.id, q.template_version_id, q.code, q.text, q.answer_type, q.category,
	q.impact, q.target_type, q.space_type_id, q.element_type_id, q.is_mandatory,
	q.is_active, q.weight, q.sort_order,
	EXISTS (SELECT 1 FROM followup_rules fr WHERE fr.child_question_id = q.id)`

// catalogReader reads template versions, questions and rules on q. Inside a
// UnitOfWork q is the operation's transaction.
type catalogReader struct {
	q querier
}

func scanVersion(scan func(dest ...any) error) (*models.TemplateVersion, error) {
	var v models.TemplateVersion

	if err := scan(&v.ID, &v.TemplateID, &v.Name, &v.Version, &v.IsDefault, &v.PublishedAt); err != nil {
		return nil, err
	}

	return &v, nil
}

func scanQuestion(scan func(dest ...any) error) (*models.Question, error) {
	var q models.Question

	err := scan(
		&q.ID,
		&q.TemplateVersionID,
		&q.Code,
		&q.Text,
		&q.AnswerType,
		&q.Category,
		&q.Impact,
		&q.TargetType,
		&q.SpaceTypeID,
		&q.ElementTypeID,
		&q.IsMandatory,
		&q.IsActive,
		&q.Weight,
		&q.SortOrder,
		&q.FollowUpOnly,
	)
	if err != nil {
		return nil, err
	}

	return &q, nil
}

// DefaultTemplateVersion returns the version flagged as default.
func (s *catalogReader) DefaultTemplateVersion(ctx context.Context) (*models.TemplateVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.version(ctx, "SELECT "+versionColumns+" FROM template_versions WHERE is_default")
}

// TemplateVersionByID returns one template version.
func (s *catalogReader) TemplateVersionByID(ctx context.Context, id int64) (*models.TemplateVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.version(ctx, "SELECT "+versionColumns+" FROM template_versions WHERE id = $1", id)
}

func (s *catalogReader) version(ctx context.Context, query string, args ...any) (*models.TemplateVersion, error) {
	v, err := scanVersion(s.q.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTemplateVersionNotFound
		}

		return nil, fmt.Errorf("getting template version: %w", err)
	}

	return v, nil
}

// QuestionsByTemplateVersion returns every question of a version, active or
// not, each with its options.
func (s *catalogReader) QuestionsByTemplateVersion(ctx context.Context, versionID int64) ([]models.Question, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx,
		"SELECT "+questionColumns+" FROM questions q WHERE q.template_version_id = $1 ORDER BY q.sort_order, q.id",
		versionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}

	questions, err := collect(rows, "question", scanQuestion)
	if err != nil {
		return nil, err
	}

	if err := s.attachOptions(ctx, questions); err != nil {
		return nil, err
	}

	return questions, nil
}

// attachOptions loads the catalog options of questions in one query.
func (s *catalogReader) attachOptions(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}

	rows, err := s.q.Query(ctx, `
		SELECT id, question_id, code, label, sort_order, penalty_weight
		FROM answer_options WHERE question_id = ANY($1)
		ORDER BY question_id, sort_order, id`, ids)
	if err != nil {
		return fmt.Errorf("querying answer options: %w", err)
	}

	opts, err := collect(rows, "answer option", func(scan func(dest ...any) error) (*models.AnswerOption, error) {
		var o models.AnswerOption
		if err := scan(&o.ID, &o.QuestionID, &o.Code, &o.Label, &o.SortOrder, &o.PenaltyWeight); err != nil {
			return nil, err
		}

		return &o, nil
	})
	if err != nil {
		return err
	}

	byQuestion := make(map[int64][]models.AnswerOption, len(questions))
	for _, o := range opts {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}

	for i := range questions {
		questions[i].Options = byQuestion[questions[i].ID]
		if questions[i].Options == nil {
			questions[i].Options = []models.AnswerOption{}
		}
	}

	return nil
}

// AutoIncidenceRulesByOptionIDs returns the incidence rules bound to optionIDs
// with their current incidence template.
func (s *catalogReader) AutoIncidenceRulesByOptionIDs(ctx context.Context, optionIDs []int64) ([]models.AutoIncidenceRule, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT r.id, r.answer_option_id,
			t.id, t.code, t.title, t.description, t.corrective_action, t.category,
			t.severity, t.non_conformity_type, t.responsible_type, t.resolution_days
		FROM auto_incidence_rules r
		JOIN incidence_templates t ON t.id = r.incidence_template_id
		WHERE r.answer_option_id = ANY($1)
		ORDER BY r.id`, optionIDs)
	if err != nil {
		return nil, fmt.Errorf("querying auto-incidence rules: %w", err)
	}

	return collect(rows, "auto-incidence rule", func(scan func(dest ...any) error) (*models.AutoIncidenceRule, error) {
		var r models.AutoIncidenceRule
		t := &r.IncidenceTemplate

		err := scan(
			&r.ID, &r.AnswerOptionID,
			&t.ID, &t.Code, &t.Title, &t.Description, &t.CorrectiveAction, &t.Category,
			&t.Severity, &t.NonConformityType, &t.ResponsibleType, &t.ResolutionDays,
		)
		if err != nil {
			return nil, err
		}

		return &r, nil
	})
}

// FollowupRulesByOptionIDs returns the follow-up rules bound to optionIDs
// with their child questions and options.
func (s *catalogReader) FollowupRulesByOptionIDs(ctx context.Context, optionIDs []int64) ([]models.FollowupRule, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT f.id, f.answer_option_id, f.required, f.sort_order, `+questionColumns+`
		FROM followup_rules f
		JOIN questions q ON q.id = f.child_question_id
		WHERE f.answer_option_id = ANY($1)
		ORDER BY f.sort_order, f.id`, optionIDs)
	if err != nil {
		return nil, fmt.Errorf("querying follow-up rules: %w", err)
	}

	rules, err := collect(rows, "follow-up rule", func(scan func(dest ...any) error) (*models.FollowupRule, error) {
		var r models.FollowupRule
		q := &r.ChildQuestion

		err := scan(
			&r.ID, &r.AnswerOptionID, &r.Required, &r.SortOrder,
			&q.ID, &q.TemplateVersionID, &q.Code, &q.Text, &q.AnswerType, &q.Category,
			&q.Impact, &q.TargetType, &q.SpaceTypeID, &q.ElementTypeID, &q.IsMandatory,
			&q.IsActive, &q.Weight, &q.SortOrder, &q.FollowUpOnly,
		)
		if err != nil {
			return nil, err
		}

		return &r, nil
	})
	if err != nil {
		return nil, err
	}

	children := make([]models.Question, len(rules))
	for i := range rules {
		children[i] = rules[i].ChildQuestion
	}

	if err := s.attachOptions(ctx, children); err != nil {
		return nil, err
	}

	for i := range rules {
		rules[i].ChildQuestion = children[i]
	}

	return rules, nil
}
