package models_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/persistorai/aptaudit/internal/models"
)

func ptr[T any](v T) *T { return &v }

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestStartAuditRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.StartAuditRequest
		wantErr string
	}{
		{name: "valid", req: models.StartAuditRequest{ApartmentID: 1, Actor: "ana"}},
		{name: "missing apartment", req: models.StartAuditRequest{}, wantErr: "apartment_id is required"},
		{name: "negative apartment", req: models.StartAuditRequest{ApartmentID: -3}, wantErr: "apartment_id is required"},
		{name: "actor too long", req: models.StartAuditRequest{ApartmentID: 1, Actor: strings.Repeat("x", 256)}, wantErr: "exceeds maximum length"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestStartAuditRequest_DefaultsActor(t *testing.T) {
	req := models.StartAuditRequest{ApartmentID: 1}
	assertNoError(t, req.Validate())

	if req.Actor != models.DefaultActor {
		t.Errorf("expected actor %q, got %q", models.DefaultActor, req.Actor)
	}
}

func TestAnswerRequest_Validate(t *testing.T) {
	tooManyOptions := make([]int64, 101)
	for i := range tooManyOptions {
		tooManyOptions[i] = int64(i + 1)
	}

	tests := []struct {
		name    string
		req     models.AnswerRequest
		wantErr string
	}{
		{name: "valid", req: models.AnswerRequest{SelectedOptionIDs: []int64{1, 2}}},
		{name: "notes too long", req: models.AnswerRequest{Notes: strings.Repeat("x", 10001)}, wantErr: "exceeds maximum length"},
		{name: "duplicate option", req: models.AnswerRequest{SelectedOptionIDs: []int64{4, 4}}, wantErr: "selected twice"},
		{name: "too many options", req: models.AnswerRequest{SelectedOptionIDs: tooManyOptions}, wantErr: "at most 100"},
		{name: "too many photos", req: models.AnswerRequest{Photos: make([]models.PhotoUpload, 21)}, wantErr: "at most 20"},
		{name: "stored photo", req: models.AnswerRequest{Photos: []models.PhotoUpload{photo("/photos/2026/10/a.png", "2026/10/a.png")}}},
		{name: "photo without key", req: models.AnswerRequest{Photos: []models.PhotoUpload{photo("https://evil.example/x.png", "")}}, wantErr: "storage_key are required"},
		{name: "photo without url", req: models.AnswerRequest{Photos: []models.PhotoUpload{photo("", "2026/10/a.png")}}, wantErr: "storage_key are required"},
		{name: "photo key escapes", req: models.AnswerRequest{Photos: []models.PhotoUpload{photo("/photos/x", "../../etc/passwd")}}, wantErr: "not a relative key"},
		{name: "photo key absolute", req: models.AnswerRequest{Photos: []models.PhotoUpload{photo("/photos/x", "/etc/passwd")}}, wantErr: "not a relative key"},
		{name: "photo url too long", req: models.AnswerRequest{Photos: []models.PhotoUpload{photo("/"+strings.Repeat("x", 2048), "a.png")}}, wantErr: "exceeds maximum length"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func photo(url, key string) models.PhotoUpload {
	return models.PhotoUpload{URL: url, StorageKey: key, ContentType: "image/png", SizeBytes: 10}
}

func TestAnswerRequest_PhotosNotDecodedFromJSON(t *testing.T) {
	var req models.AnswerRequest

	body := `{"value":{"bool":true},"photos":[{"url":"https://evil.example/x.png","storage_key":"x"}]}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(req.Photos) != 0 {
		t.Errorf("photos decoded from JSON: %+v", req.Photos)
	}
}

func TestCancelAuditRequest_Validate(t *testing.T) {
	assertNoError(t, (&models.CancelAuditRequest{Reason: "tenant left early"}).Validate())
	assertErrorContains(t, (&models.CancelAuditRequest{Reason: strings.Repeat("x", 2001)}).Validate(), "exceeds maximum length")
}

func TestAnswerValue_ValidateFor(t *testing.T) {
	tests := []struct {
		name     string
		value    models.AnswerValue
		typ      models.AnswerType
		selected []int64
		photos   int
		wantErr  string
	}{
		{name: "boolean", value: models.AnswerValue{Bool: ptr(false)}, typ: models.AnswerBoolean},
		{name: "boolean missing", typ: models.AnswerBoolean, wantErr: "boolean value required"},
		{name: "text", value: models.AnswerValue{Text: ptr("scratched")}, typ: models.AnswerText},
		{name: "text empty", value: models.AnswerValue{Text: ptr("")}, typ: models.AnswerText, wantErr: "text value required"},
		{name: "number", value: models.AnswerValue{Number: ptr(21.5)}, typ: models.AnswerNumber},
		{name: "number NaN", value: models.AnswerValue{Number: ptr(math.NaN())}, typ: models.AnswerNumber, wantErr: "finite numeric"},
		{name: "number Inf", value: models.AnswerValue{Number: ptr(math.Inf(1))}, typ: models.AnswerNumber, wantErr: "finite numeric"},
		{name: "single choice", typ: models.AnswerSingleChoice, selected: []int64{7}},
		{name: "single choice two", typ: models.AnswerSingleChoice, selected: []int64{7, 8}, wantErr: "exactly one option"},
		{name: "single choice none", typ: models.AnswerSingleChoice, wantErr: "exactly one option"},
		{name: "multiple choice", typ: models.AnswerMultipleChoice, selected: []int64{7, 8}},
		{name: "multiple choice none", typ: models.AnswerMultipleChoice, wantErr: "at least one option"},
		{name: "photo", typ: models.AnswerPhoto, photos: 1},
		{name: "photo none", typ: models.AnswerPhoto, wantErr: "at least one photo"},
		{name: "unknown type", typ: "SIGNATURE", wantErr: "unknown answer type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.value.ValidateFor(tc.typ, tc.selected, tc.photos)
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)

				if !errors.Is(err, models.ErrInvalidAnswer) {
					t.Errorf("expected ErrInvalidAnswer, got %v", err)
				}

				return
			}
			assertNoError(t, err)
		})
	}
}

func TestAuditStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to models.AuditStatus
		want     bool
	}{
		{models.AuditStatusDraft, models.AuditStatusInProgress, true},
		{models.AuditStatusDraft, models.AuditStatusCancelled, true},
		{models.AuditStatusDraft, models.AuditStatusCompleted, false},
		{models.AuditStatusInProgress, models.AuditStatusCompleted, true},
		{models.AuditStatusInProgress, models.AuditStatusCancelled, true},
		{models.AuditStatusCompleted, models.AuditStatusCancelled, false},
		{models.AuditStatusCancelled, models.AuditStatusInProgress, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}

	if !models.AuditStatusCompleted.IsTerminal() || !models.AuditStatusCancelled.IsTerminal() {
		t.Error("expected COMPLETED and CANCELLED to be terminal")
	}

	if models.AuditStatusDraft.CanAnswer() || !models.AuditStatusInProgress.CanAnswer() {
		t.Error("only IN_PROGRESS audits accept answers")
	}

	if models.AuditStatus("PAUSED").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestAudit_WithStatus(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	a := models.Audit{ID: 1, Status: models.AuditStatusInProgress, CompletionRate: 80}

	done := a.WithStatus(models.AuditStatusCompleted, now)
	if done.CompletedAt == nil || !done.CompletedAt.Equal(now) {
		t.Errorf("expected completed_at %v, got %v", now, done.CompletedAt)
	}

	if done.CompletionRate != 100 {
		t.Errorf("expected completion rate 100, got %v", done.CompletionRate)
	}

	if a.Status != models.AuditStatusInProgress {
		t.Error("WithStatus must not modify the receiver")
	}

	cancelled := a.WithStatus(models.AuditStatusCancelled, now)
	if cancelled.CancelledAt == nil || cancelled.CompletionRate != 80 {
		t.Errorf("unexpected cancelled audit %+v", cancelled)
	}
}

func TestNewIncidence(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rule := &models.AutoIncidenceRule{
		ID:             3,
		AnswerOptionID: 11,
		IncidenceTemplate: models.IncidenceTemplate{
			ID:             5,
			Title:          "Broken window",
			Severity:       models.SeverityHigh,
			ResolutionDays: 7,
		},
	}
	item := &models.AuditItem{ID: 42, SpaceID: ptr(int64(9)), ElementID: ptr(int64(10))}

	inc := models.NewIncidence(rule, models.TargetContext{ApartmentID: 2, AuditID: 1, Item: item}, now)

	if inc.Status != models.IncidenceOpen {
		t.Errorf("expected OPEN, got %s", inc.Status)
	}

	if inc.AuditItemID != 42 || *inc.SpaceID != 9 || *inc.ElementID != 10 || inc.ApartmentID != 2 {
		t.Errorf("scope not inherited from item: %+v", inc)
	}

	if inc.DueAt == nil || !inc.DueAt.Equal(now.AddDate(0, 0, 7)) {
		t.Errorf("expected due date a week out, got %v", inc.DueAt)
	}

	rule.IncidenceTemplate.ResolutionDays = 0
	if models.NewIncidence(rule, models.TargetContext{Item: item}, now).DueAt != nil {
		t.Error("expected no due date without resolution days")
	}
}
