package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/persistorai/aptaudit/internal/api"
	"github.com/persistorai/aptaudit/internal/models"
)

func TestActivityQuery(t *testing.T) {
	t.Parallel()

	var got models.ActivityQueryOpts

	repo := &mockActivity{
		queryFn: func(_ context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error) {
			got = opts
			return []models.ActivityEntry{{Action: "audit.start"}}, false, nil
		},
	}

	r := newTestRouter()
	h := api.NewActivityHandler(repo, testLogger())
	r.GET("/activity", h.Query)

	w := doRequest(r, http.MethodGet, "/activity?entity_type=audit&entity_id=5&since=2026-01-02T03:04:05Z&limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if got.EntityType != "audit" || got.EntityID != "5" || got.Limit != 10 {
		t.Errorf("opts = %+v", got)
	}

	if got.Since == nil || !got.Since.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("since = %v", got.Since)
	}

	w = doRequest(r, http.MethodGet, "/activity?since=yesterday", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad since, got %d", w.Code)
	}
}

func TestActivityPurge(t *testing.T) {
	t.Parallel()

	var gotDays int

	repo := &mockActivity{
		purgeFn: func(_ context.Context, days int) (int, error) {
			gotDays = days
			if days == 1 {
				return 0, errors.New("db down")
			}
			return 12, nil
		},
	}

	r := newTestRouter()
	h := api.NewActivityHandler(repo, testLogger())
	r.DELETE("/activity", h.Purge)

	w := doRequest(r, http.MethodDelete, "/activity", "")
	if w.Code != http.StatusOK || gotDays != 90 {
		t.Fatalf("expected 200 with default retention, got %d days=%d", w.Code, gotDays)
	}

	if body := decodeBody(t, w); body["deleted"] != float64(12) {
		t.Errorf("expected deleted 12, got %v", body["deleted"])
	}

	if w := doRequest(r, http.MethodDelete, "/activity?retention_days=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	if w := doRequest(r, http.MethodDelete, "/activity?retention_days=1", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
