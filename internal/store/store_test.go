package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/db"
	"github.com/persistorai/aptaudit/internal/db/migrations"
	"github.com/persistorai/aptaudit/internal/dbpool"
	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/seed"
	"github.com/persistorai/aptaudit/internal/service"
	"github.com/persistorai/aptaudit/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, 0)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// fixture is a catalog and apartment seeded under unique codes.
type fixture struct {
	base        store.Base
	versionID   int64
	apartmentID int64
	questions   map[string]models.Question
}

// option returns the catalog option id for question/option codes.
func (f *fixture) option(t *testing.T, question, option string) int64 {
	t.Helper()

	for _, o := range f.questions[question].Options {
		if o.Code == option {
			return o.ID
		}
	}

	t.Fatalf("option %s.%s not found", question, option)

	return 0
}

// setupFixture seeds a non-default template version and one apartment with
// a kitchen (holding a smoke detector) and a bathroom.
func setupFixture(t *testing.T) *fixture {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()
	sfx := uuid.NewString()[:8]
	code := func(s string) string { return s + "_" + sfx }

	doc := &seed.Document{
		SpaceTypes: []seed.TypeDoc{
			{Code: code("KITCHEN"), Name: "Kitchen"},
			{Code: code("BATHROOM"), Name: "Bathroom"},
		},
		ElementTypes: []seed.TypeDoc{{Code: code("DETECTOR"), Name: "Smoke detector"}},
		IncidenceTemplates: []seed.IncidenceTemplateDoc{{
			Code:              code("KEYS_MISSING"),
			Title:             "Keys missing",
			Category:          models.CategoryInventory,
			Severity:          models.SeverityHigh,
			NonConformityType: models.NonConformityMajor,
			ResponsibleType:   models.ResponsibleManagement,
			ResolutionDays:    3,
		}},
		Templates: []seed.TemplateDoc{{
			Code: code("CHECKIN"),
			Name: "Check-in",
			Versions: []seed.VersionDoc{{
				Version: 1,
				Name:    "v1",
				Questions: []seed.QuestionDoc{
					{
						Code: "APT_KEYS", Text: "Keys present?", AnswerType: models.AnswerSingleChoice,
						Category: models.CategoryInventory, Impact: models.ImpactHigh, Target: models.TargetApartment,
						Mandatory: true, SortOrder: 1,
						Options: []seed.OptionDoc{
							{Code: "OK", Label: "All present", SortOrder: 1},
							{
								Code: "MISSING", Label: "Some missing", SortOrder: 2,
								Incidences: []string{code("KEYS_MISSING")},
								FollowUps:  []seed.FollowUpDoc{{Question: "KEYS_DETAIL", Required: true, SortOrder: 10}},
							},
						},
					},
					{
						Code: "KEYS_DETAIL", Text: "Which keys?", AnswerType: models.AnswerText,
						Category: models.CategoryInventory, Impact: models.ImpactMedium, Target: models.TargetApartment,
						SortOrder: 2,
					},
					{
						Code: "KITCHEN_CLEAN", Text: "Kitchen clean?", AnswerType: models.AnswerBoolean,
						Category: models.CategoryCleanliness, Impact: models.ImpactMedium, Target: models.TargetSpace,
						SpaceType: code("KITCHEN"), Mandatory: true, SortOrder: 3,
					},
					{
						Code: "DETECTOR_OK", Text: "Detector works?", AnswerType: models.AnswerBoolean,
						Category: models.CategorySafety, Impact: models.ImpactCritical, Target: models.TargetElement,
						ElementType: code("DETECTOR"), SortOrder: 4,
					},
				},
			}},
		}},
		Apartments: []seed.ApartmentDoc{{
			Code: code("APT"),
			Name: "Test apartment",
			Spaces: []seed.SpaceDoc{
				{
					Name: "Kitchen", Type: code("KITCHEN"), SortOrder: 1,
					Elements: []seed.ElementDoc{{Name: "Detector", Type: code("DETECTOR"), SortOrder: 1}},
				},
				{Name: "Bathroom", Type: code("BATHROOM"), SortOrder: 2},
			},
		}},
	}

	if err := doc.Validate(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}

	base := store.Base{Pool: env.pool, Log: env.log}

	if _, err := store.NewSeedStore(base).Import(ctx, doc); err != nil {
		t.Fatalf("seeding fixture: %v", err)
	}

	f := &fixture{base: base, questions: make(map[string]models.Question)}

	err := env.pool.QueryRow(ctx, `
		SELECT tv.id FROM template_versions tv
		JOIN audit_templates t ON t.id = tv.template_id
		WHERE t.code = $1 AND tv.version = 1`, code("CHECKIN"),
	).Scan(&f.versionID)
	if err != nil {
		t.Fatalf("loading version id: %v", err)
	}

	if err := env.pool.QueryRow(ctx,
		`SELECT id FROM apartments WHERE code = $1`, code("APT"),
	).Scan(&f.apartmentID); err != nil {
		t.Fatalf("loading apartment id: %v", err)
	}

	var questions []models.Question

	err = store.NewUnitOfWork(base).RunInTx(ctx, func(tx service.Tx) error {
		var err error
		questions, err = tx.QuestionsByTemplateVersion(ctx, f.versionID)

		return err
	})
	if err != nil {
		t.Fatalf("loading questions: %v", err)
	}

	for _, q := range questions {
		f.questions[q.Code] = q
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// Audits first; cascades remove items, responses and incidences.
		stmts := []struct {
			sql string
			arg any
		}{
			{"DELETE FROM audits WHERE apartment_id = $1", f.apartmentID},
			{"DELETE FROM apartments WHERE id = $1", f.apartmentID},
			{"DELETE FROM audit_templates WHERE code = $1", code("CHECKIN")},
			{"DELETE FROM incidence_templates WHERE code = $1", code("KEYS_MISSING")},
			{"DELETE FROM space_types WHERE code LIKE $1", "%_" + sfx},
			{"DELETE FROM element_types WHERE code LIKE $1", "%_" + sfx},
		}

		for _, st := range stmts {
			env.pool.Exec(cleanCtx, st.sql, st.arg) //nolint:errcheck // best-effort cleanup
		}
	})

	return f
}
