package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/aptaudit/internal/seed"
)

// SeedStore writes seed documents into the catalog and apartment tables.
type SeedStore struct {
	Base
}

// NewSeedStore creates a SeedStore.
func NewSeedStore(base Base) *SeedStore {
	return &SeedStore{Base: base}
}

// Import writes doc in a single transaction. Types, incidence templates,
// templates and apartments are matched by code. Template versions that
// already exist are skipped since published versions never change.
func (s *SeedStore) Import(ctx context.Context, doc *seed.Document) (*seed.Stats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit or on error.

	im := &seedImport{tx: tx, stats: &seed.Stats{}}

	spaceTypes, err := im.upsertTypes(ctx, "space_types", doc.SpaceTypes)
	if err != nil {
		return nil, err
	}

	elementTypes, err := im.upsertTypes(ctx, "element_types", doc.ElementTypes)
	if err != nil {
		return nil, err
	}

	incidences, err := im.upsertIncidenceTemplates(ctx, doc.IncidenceTemplates)
	if err != nil {
		return nil, err
	}

	for i := range doc.Templates {
		if err := im.importTemplate(ctx, &doc.Templates[i], spaceTypes, elementTypes, incidences); err != nil {
			return nil, err
		}
	}

	for i := range doc.Apartments {
		if err := im.importApartment(ctx, &doc.Apartments[i], spaceTypes, elementTypes); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing seed: %w", err)
	}

	s.Log.WithField("stats", *im.stats).Info("seed.import")

	return im.stats, nil
}

type seedImport struct {
	tx    pgx.Tx
	stats *seed.Stats
}

func (im *seedImport) upsertTypes(ctx context.Context, table string, types []seed.TypeDoc) (map[string]int64, error) {
	ids := make(map[string]int64, len(types))

	//nolint:gosec // table is one of two fixed identifiers.
	query := `INSERT INTO ` + table + ` (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	for _, t := range types {
		var id int64
		if err := im.tx.QueryRow(ctx, query, t.Code, t.Name).Scan(&id); err != nil {
			return nil, fmt.Errorf("upserting %s %q: %w", table, t.Code, err)
		}

		ids[t.Code] = id
		im.stats.Types++
	}

	return ids, nil
}

func (im *seedImport) upsertIncidenceTemplates(
	ctx context.Context, templates []seed.IncidenceTemplateDoc,
) (map[string]int64, error) {
	ids := make(map[string]int64, len(templates))

	for _, t := range templates {
		var id int64

		err := im.tx.QueryRow(ctx, `
			INSERT INTO incidence_templates
				(code, title, description, corrective_action, category, severity,
				 non_conformity_type, responsible_type, resolution_days)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (code) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				corrective_action = EXCLUDED.corrective_action,
				category = EXCLUDED.category,
				severity = EXCLUDED.severity,
				non_conformity_type = EXCLUDED.non_conformity_type,
				responsible_type = EXCLUDED.responsible_type,
				resolution_days = EXCLUDED.resolution_days
			RETURNING id`,
			t.Code, t.Title, t.Description, t.CorrectiveAction, t.Category, t.Severity,
			t.NonConformityType, t.ResponsibleType, t.ResolutionDays,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upserting incidence template %q: %w", t.Code, err)
		}

		ids[t.Code] = id
		im.stats.IncidenceTemplates++
	}

	return ids, nil
}

func (im *seedImport) importTemplate(
	ctx context.Context, tpl *seed.TemplateDoc, spaceTypes, elementTypes, incidences map[string]int64,
) error {
	var templateID int64

	err := im.tx.QueryRow(ctx, `
		INSERT INTO audit_templates (code, name, description) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
		RETURNING id`,
		tpl.Code, tpl.Name, tpl.Description,
	).Scan(&templateID)
	if err != nil {
		return fmt.Errorf("upserting template %q: %w", tpl.Code, err)
	}

	for i := range tpl.Versions {
		v := &tpl.Versions[i]

		var versionID int64

		err := im.tx.QueryRow(ctx, `
			INSERT INTO template_versions (template_id, version, name) VALUES ($1, $2, $3)
			ON CONFLICT (template_id, version) DO NOTHING
			RETURNING id`,
			templateID, v.Version, v.Name,
		).Scan(&versionID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}

		if err != nil {
			return fmt.Errorf("inserting template %q v%d: %w", tpl.Code, v.Version, err)
		}

		im.stats.Versions++

		if err := im.importQuestions(ctx, versionID, v.Questions, spaceTypes, elementTypes, incidences); err != nil {
			return fmt.Errorf("template %q v%d: %w", tpl.Code, v.Version, err)
		}

		if v.Default {
			if err := im.makeDefault(ctx, versionID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (im *seedImport) makeDefault(ctx context.Context, versionID int64) error {
	if _, err := im.tx.Exec(ctx,
		`UPDATE template_versions SET is_default = FALSE WHERE is_default AND id <> $1`, versionID,
	); err != nil {
		return fmt.Errorf("clearing default version: %w", err)
	}

	if _, err := im.tx.Exec(ctx,
		`UPDATE template_versions SET is_default = TRUE WHERE id = $1`, versionID,
	); err != nil {
		return fmt.Errorf("setting default version: %w", err)
	}

	return nil
}

func (im *seedImport) importQuestions(
	ctx context.Context,
	versionID int64,
	questions []seed.QuestionDoc,
	spaceTypes, elementTypes, incidences map[string]int64,
) error {
	questionIDs := make(map[string]int64, len(questions))

	for i := range questions {
		q := &questions[i]

		var id int64

		err := im.tx.QueryRow(ctx, `
			INSERT INTO questions
				(template_version_id, code, text, answer_type, category, impact, target_type,
				 space_type_id, element_type_id, is_mandatory, is_active, weight, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			versionID, q.Code, q.Text, q.AnswerType, q.Category, q.Impact, q.Target,
			lookupID(spaceTypes, q.SpaceType), lookupID(elementTypes, q.ElementType),
			q.Mandatory, q.IsActive(), q.Weight, q.SortOrder,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("inserting question %q: %w", q.Code, err)
		}

		questionIDs[q.Code] = id
		im.stats.Questions++
	}

	// Options go in a second pass so follow-ups can point at later questions.
	for i := range questions {
		q := &questions[i]

		for j := range q.Options {
			if err := im.importOption(ctx, questionIDs[q.Code], &q.Options[j], questionIDs, incidences); err != nil {
				return fmt.Errorf("question %q: %w", q.Code, err)
			}
		}
	}

	return nil
}

func (im *seedImport) importOption(
	ctx context.Context, questionID int64, o *seed.OptionDoc, questionIDs, incidences map[string]int64,
) error {
	var optionID int64

	err := im.tx.QueryRow(ctx, `
		INSERT INTO answer_options (question_id, code, label, sort_order, penalty_weight)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		questionID, o.Code, o.Label, o.SortOrder, o.Penalty,
	).Scan(&optionID)
	if err != nil {
		return fmt.Errorf("inserting option %q: %w", o.Code, err)
	}

	for _, code := range o.Incidences {
		if _, err := im.tx.Exec(ctx,
			`INSERT INTO auto_incidence_rules (answer_option_id, incidence_template_id) VALUES ($1, $2)`,
			optionID, incidences[code],
		); err != nil {
			return fmt.Errorf("inserting incidence rule %s -> %s: %w", o.Code, code, err)
		}

		im.stats.Rules++
	}

	for _, f := range o.FollowUps {
		if _, err := im.tx.Exec(ctx, `
			INSERT INTO followup_rules (answer_option_id, child_question_id, required, sort_order)
			VALUES ($1, $2, $3, $4)`,
			optionID, questionIDs[f.Question], f.Required, f.SortOrder,
		); err != nil {
			return fmt.Errorf("inserting follow-up rule %s -> %s: %w", o.Code, f.Question, err)
		}

		im.stats.Rules++
	}

	return nil
}

func (im *seedImport) importApartment(
	ctx context.Context, a *seed.ApartmentDoc, spaceTypes, elementTypes map[string]int64,
) error {
	var apartmentID int64

	err := im.tx.QueryRow(ctx, `
		INSERT INTO apartments (code, name, address) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
		RETURNING id`,
		a.Code, a.Name, a.Address,
	).Scan(&apartmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("inserting apartment %q: %w", a.Code, err)
	}

	for _, sp := range a.Spaces {
		var spaceID int64

		err := im.tx.QueryRow(ctx, `
			INSERT INTO spaces (apartment_id, space_type_id, name, sort_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			apartmentID, spaceTypes[sp.Type], sp.Name, sp.SortOrder,
		).Scan(&spaceID)
		if err != nil {
			return fmt.Errorf("inserting space %q of %q: %w", sp.Name, a.Code, err)
		}

		for _, el := range sp.Elements {
			if _, err := im.tx.Exec(ctx, `
				INSERT INTO elements (space_id, element_type_id, name, sort_order)
				VALUES ($1, $2, $3, $4)`,
				spaceID, elementTypes[el.Type], el.Name, el.SortOrder,
			); err != nil {
				return fmt.Errorf("inserting element %q of %q: %w", el.Name, a.Code, err)
			}
		}
	}

	im.stats.Apartments++

	return nil
}

// lookupID returns nil for an empty code so the column stays NULL.
func lookupID(ids map[string]int64, code string) *int64 {
	if code == "" {
		return nil
	}

	id, ok := ids[code]
	if !ok {
		return nil
	}

	return &id
}
