package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
	"github.com/persistorai/aptaudit/internal/store"
)

func newEngine(f *fixture) (*service.Engine, *service.QueryService) {
	engine := service.NewEngine(service.EngineDeps{
		UnitOfWork: store.NewUnitOfWork(f.base),
		Log:        f.base.Log,
	})

	return engine, service.NewQueryService(store.NewAuditReadStore(f.base))
}

func itemByCode(t *testing.T, items []models.AuditItem, code string) models.AuditItem {
	t.Helper()

	for _, it := range items {
		if it.QuestionCode == code {
			return it
		}
	}

	t.Fatalf("no item for question %s", code)

	return models.AuditItem{}
}

func TestCatalog_FollowUpOnlyQuestions(t *testing.T) {
	f := setupFixture(t)

	if !f.questions["KEYS_DETAIL"].FollowUpOnly {
		t.Error("KEYS_DETAIL is a follow-up child and should be follow-up only")
	}

	if f.questions["APT_KEYS"].FollowUpOnly || f.questions["KITCHEN_CLEAN"].FollowUpOnly {
		t.Error("root questions must not be follow-up only")
	}
}

func TestEngine_FullLifecycle(t *testing.T) {
	f := setupFixture(t)
	engine, query := newEngine(f)
	ctx := context.Background()

	detail, err := engine.StartAudit(ctx, models.StartAuditRequest{
		ApartmentID:       f.apartmentID,
		TemplateVersionID: &f.versionID,
		Actor:             "inspector-1",
	})
	if err != nil {
		t.Fatalf("StartAudit: %v", err)
	}

	if detail.Status != models.AuditStatusInProgress {
		t.Errorf("Status = %s, want IN_PROGRESS", detail.Status)
	}

	// APT_KEYS + KITCHEN_CLEAN + DETECTOR_OK; KEYS_DETAIL is follow-up only.
	if len(detail.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(detail.Items))
	}

	keys := itemByCode(t, detail.Items, "APT_KEYS")
	if len(keys.Options) != 2 {
		t.Fatalf("APT_KEYS options = %d, want 2", len(keys.Options))
	}

	var missing int64
	for _, o := range keys.Options {
		if o.Code == "MISSING" {
			missing = o.ID
		}
	}

	res, err := engine.AnswerItem(ctx, models.AnswerRequest{
		AuditID:           detail.ID,
		AuditItemID:       keys.ID,
		SelectedOptionIDs: []int64{missing},
		Actor:             "inspector-1",
	})
	if err != nil {
		t.Fatalf("AnswerItem: %v", err)
	}

	if len(res.Incidences) != 1 || res.Incidences[0].Severity != models.SeverityHigh {
		t.Fatalf("incidences = %+v", res.Incidences)
	}

	if len(res.FollowUps) != 1 || !res.FollowUps[0].IsMandatory {
		t.Fatalf("follow-ups = %+v", res.FollowUps)
	}

	// 1 answered of 4 items including the follow-up.
	if res.CompletionRate != 25 {
		t.Errorf("CompletionRate = %v, want 25", res.CompletionRate)
	}

	_, err = engine.CompleteAudit(ctx, detail.ID, "inspector-1")

	var incomplete *models.IncompleteAuditError
	if !errors.As(err, &incomplete) || incomplete.Missing != 2 {
		t.Fatalf("CompleteAudit err = %v, want 2 missing", err)
	}

	yes := true
	text := "back door set"

	answers := []models.AnswerRequest{
		{AuditItemID: res.FollowUps[0].ID, Value: models.AnswerValue{Text: &text}},
		{AuditItemID: itemByCode(t, detail.Items, "KITCHEN_CLEAN").ID, Value: models.AnswerValue{Bool: &yes}},
	}

	for _, a := range answers {
		a.AuditID = detail.ID
		if _, err := engine.AnswerItem(ctx, a); err != nil {
			t.Fatalf("AnswerItem(%d): %v", a.AuditItemID, err)
		}
	}

	done, err := engine.CompleteAudit(ctx, detail.ID, "inspector-1")
	if err != nil {
		t.Fatalf("CompleteAudit: %v", err)
	}

	if done.Status != models.AuditStatusCompleted || done.CompletionRate != 100 || done.CompletedAt == nil {
		t.Errorf("completed audit = %+v", done)
	}

	history, err := query.ListStatusHistory(ctx, detail.ID)
	if err != nil {
		t.Fatalf("ListStatusHistory: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("history = %d entries, want 3", len(history))
	}

	summary, err := query.Summary(ctx, detail.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.AnsweredItems != 3 || summary.FollowUpItems != 1 || summary.IncidencesBySeverity[models.SeverityHigh] != 1 {
		t.Errorf("summary = %+v", summary)
	}

	resp, err := query.GetResponse(ctx, detail.ID, keys.ID)
	if err != nil {
		t.Fatalf("GetResponse: %v", err)
	}

	if len(resp.SelectedOptionIDs) != 1 || resp.SelectedOptionIDs[0] != missing {
		t.Errorf("SelectedOptionIDs = %v, want [%d]", resp.SelectedOptionIDs, missing)
	}
}

func TestEngine_ConcurrentStartsYieldOneAudit(t *testing.T) {
	f := setupFixture(t)
	engine, query := newEngine(f)
	ctx := context.Background()

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		started   int
		conflicts int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := engine.StartAudit(ctx, models.StartAuditRequest{
				ApartmentID:       f.apartmentID,
				TemplateVersionID: &f.versionID,
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				started++
			case errors.Is(err, models.ErrActiveAuditExists):
				conflicts++
			default:
				t.Errorf("StartAudit: %v", err)
			}
		}()
	}

	wg.Wait()

	if started != 1 || conflicts != workers-1 {
		t.Fatalf("started=%d conflicts=%d, want 1/%d", started, conflicts, workers-1)
	}

	audits, _, err := query.ListAudits(ctx, f.apartmentID, models.AuditStatusInProgress, 10, 0)
	if err != nil {
		t.Fatalf("ListAudits: %v", err)
	}

	if len(audits) != 1 {
		t.Errorf("in-progress audits = %d, want 1", len(audits))
	}
}

func TestEngine_ConcurrentAnswersRecordOnce(t *testing.T) {
	f := setupFixture(t)
	engine, query := newEngine(f)
	ctx := context.Background()

	detail, err := engine.StartAudit(ctx, models.StartAuditRequest{
		ApartmentID:       f.apartmentID,
		TemplateVersionID: &f.versionID,
	})
	if err != nil {
		t.Fatalf("StartAudit: %v", err)
	}

	keys := itemByCode(t, detail.Items, "APT_KEYS")
	missing := f.option(t, "APT_KEYS", "MISSING")

	var selected int64
	for _, o := range keys.Options {
		if o.TemplateOptionID == missing {
			selected = o.ID
		}
	}

	const workers = 6

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := engine.AnswerItem(ctx, models.AnswerRequest{
				AuditID:           detail.ID,
				AuditItemID:       keys.ID,
				SelectedOptionIDs: []int64{selected},
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrAlreadyAnswered):
				rejected++
			default:
				t.Errorf("AnswerItem: %v", err)
			}
		}()
	}

	wg.Wait()

	if ok != 1 || rejected != workers-1 {
		t.Fatalf("ok=%d rejected=%d, want 1/%d", ok, rejected, workers-1)
	}

	incidences, err := query.ListIncidences(ctx, detail.ID)
	if err != nil {
		t.Fatalf("ListIncidences: %v", err)
	}

	if len(incidences) != 1 {
		t.Errorf("incidences = %d, want 1", len(incidences))
	}

	got, err := query.GetAudit(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetAudit: %v", err)
	}

	followUps := 0
	for _, it := range got.Items {
		if it.IsFollowUp() {
			followUps++
		}
	}

	if followUps != 1 {
		t.Errorf("follow-up items = %d, want 1", followUps)
	}
}

func TestEngine_CancelReleasesApartment(t *testing.T) {
	f := setupFixture(t)
	engine, _ := newEngine(f)
	ctx := context.Background()

	req := models.StartAuditRequest{ApartmentID: f.apartmentID, TemplateVersionID: &f.versionID}

	first, err := engine.StartAudit(ctx, req)
	if err != nil {
		t.Fatalf("StartAudit: %v", err)
	}

	_, err = engine.StartAudit(ctx, req)

	var conflict *models.ActiveAuditConflictError
	if !errors.As(err, &conflict) || conflict.ExistingAuditID != first.ID {
		t.Fatalf("second StartAudit err = %v, want conflict on %d", err, first.ID)
	}

	cancelled, err := engine.CancelAudit(ctx, first.ID, "manager", "wrong apartment")
	if err != nil {
		t.Fatalf("CancelAudit: %v", err)
	}

	if cancelled.Status != models.AuditStatusCancelled {
		t.Errorf("Status = %s, want CANCELLED", cancelled.Status)
	}

	if _, err := engine.StartAudit(ctx, req); err != nil {
		t.Fatalf("StartAudit after cancel: %v", err)
	}
}
