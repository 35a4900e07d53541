package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/models"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

// mockRecorder records activity calls.
type mockRecorder struct {
	mu    sync.Mutex
	calls []ActivityJob

	err error
}

func (m *mockRecorder) RecordActivity(ctx context.Context, action, entityType, entityID, actor string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ActivityJob{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})
	return m.err
}

func (m *mockRecorder) getCalls() []ActivityJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ActivityJob, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// mockEnqueuer captures enqueued activity jobs synchronously.
type mockEnqueuer struct {
	mu   sync.Mutex
	jobs []ActivityJob
}

func (m *mockEnqueuer) Enqueue(job *ActivityJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, *job)
}

func (m *mockEnqueuer) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Action)
	}
	return out
}

// fakeCatalog is an in-memory catalog. Its values can be edited between calls
// to model catalog changes after an audit has snapshotted them.
type fakeCatalog struct {
	mu            sync.Mutex
	versions      map[int64]models.TemplateVersion
	defaultID     int64
	questions     map[int64][]models.Question
	incidenceRule []models.AutoIncidenceRule
	followupRules []models.FollowupRule

	questionCalls atomic.Int32
	err           error
}

func (c *fakeCatalog) DefaultTemplateVersion(ctx context.Context) (*models.TemplateVersion, error) {
	return c.TemplateVersionByID(ctx, c.defaultID)
}

func (c *fakeCatalog) TemplateVersionByID(_ context.Context, id int64) (*models.TemplateVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.versions[id]
	if !ok {
		return nil, models.ErrTemplateVersionNotFound
	}
	return &v, nil
}

func (c *fakeCatalog) QuestionsByTemplateVersion(_ context.Context, versionID int64) ([]models.Question, error) {
	c.questionCalls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.questions[versionID]), nil
}

func (c *fakeCatalog) AutoIncidenceRulesByOptionIDs(_ context.Context, optionIDs []int64) ([]models.AutoIncidenceRule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.AutoIncidenceRule
	for _, r := range c.incidenceRule {
		if slices.Contains(optionIDs, r.AnswerOptionID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *fakeCatalog) FollowupRulesByOptionIDs(_ context.Context, optionIDs []int64) ([]models.FollowupRule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.FollowupRule
	for _, r := range c.followupRules {
		if slices.Contains(optionIDs, r.AnswerOptionID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeApartments serves fixed apartment graphs.
type fakeApartments map[int64]models.ApartmentGraph

func (f fakeApartments) ApartmentWithSpacesAndElements(_ context.Context, id int64) (*models.ApartmentGraph, error) {
	g, ok := f[id]
	if !ok {
		return nil, models.ErrApartmentNotFound
	}
	return &g, nil
}

// fakeState is the committed content of a fakeDB.
type fakeState struct {
	nextID     int64
	audits     map[int64]models.Audit
	items      map[int64]models.AuditItem
	responses  map[int64]models.AuditResponse
	links      map[int64][]int64
	photos     []models.AuditPhoto
	incidences []models.AuditIncidence
	history    []models.AuditStatusHistory
}

func (s *fakeState) clone() *fakeState {
	return &fakeState{
		nextID:     s.nextID,
		audits:     maps.Clone(s.audits),
		items:      maps.Clone(s.items),
		responses:  maps.Clone(s.responses),
		links:      maps.Clone(s.links),
		photos:     slices.Clone(s.photos),
		incidences: slices.Clone(s.incidences),
		history:    slices.Clone(s.history),
	}
}

func (s *fakeState) id() int64 {
	s.nextID++
	return s.nextID
}

var errTxDone = errors.New("transaction already finished")

// fakeDB is an in-memory UnitOfWork. Transactions run serially against a
// private copy of the state that is published only when fn returns nil.
// Catalog and apartment reads are served by the transaction handle.
type fakeDB struct {
	mu         sync.Mutex
	state      *fakeState
	catalog    *fakeCatalog
	apartments fakeApartments

	// conns, when set, models a pool with cap(conns) connections. Each
	// transaction holds one until it ends.
	conns chan struct{}

	txReads   atomic.Int32
	lateReads atomic.Int32

	failOn  string
	failErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		state: &fakeState{
			audits:    map[int64]models.Audit{},
			items:     map[int64]models.AuditItem{},
			responses: map[int64]models.AuditResponse{},
			links:     map[int64][]int64{},
		},
		catalog:    testCatalog(),
		apartments: testApartments(),
	}
}

func (db *fakeDB) acquire(ctx context.Context) (func(), error) {
	if db.conns == nil {
		return func() {}, nil
	}

	select {
	case db.conns <- struct{}{}:
		return func() { <-db.conns }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (db *fakeDB) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &fakeTx{db: db, s: db.state.clone()}
	defer func() { tx.done = true }()

	if err := fn(tx); err != nil {
		return err
	}

	db.state = tx.s
	return nil
}

func (db *fakeDB) snapshot() *fakeState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

func (db *fakeDB) itemsOf(auditID int64) []models.AuditItem {
	s := db.snapshot()
	var out []models.AuditItem
	for _, it := range s.items {
		if it.AuditID == auditID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b models.AuditItem) int { return int(a.ID - b.ID) })
	return out
}

type fakeTx struct {
	db   *fakeDB
	s    *fakeState
	done bool
}

// read counts a catalog or apartment read and rejects it once the
// transaction has ended.
func (t *fakeTx) read() error {
	if t.done {
		t.db.lateReads.Add(1)
		return errTxDone
	}
	t.db.txReads.Add(1)
	return nil
}

func (t *fakeTx) DefaultTemplateVersion(ctx context.Context) (*models.TemplateVersion, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	return t.db.catalog.DefaultTemplateVersion(ctx)
}

func (t *fakeTx) TemplateVersionByID(ctx context.Context, id int64) (*models.TemplateVersion, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	return t.db.catalog.TemplateVersionByID(ctx, id)
}

func (t *fakeTx) QuestionsByTemplateVersion(ctx context.Context, versionID int64) ([]models.Question, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	return t.db.catalog.QuestionsByTemplateVersion(ctx, versionID)
}

func (t *fakeTx) AutoIncidenceRulesByOptionIDs(ctx context.Context, optionIDs []int64) ([]models.AutoIncidenceRule, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	return t.db.catalog.AutoIncidenceRulesByOptionIDs(ctx, optionIDs)
}

func (t *fakeTx) FollowupRulesByOptionIDs(ctx context.Context, optionIDs []int64) ([]models.FollowupRule, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	return t.db.catalog.FollowupRulesByOptionIDs(ctx, optionIDs)
}

func (t *fakeTx) ApartmentWithSpacesAndElements(ctx context.Context, apartmentID int64) (*models.ApartmentGraph, error) {
	if err := t.read(); err != nil {
		return nil, err
	}
	return t.db.apartments.ApartmentWithSpacesAndElements(ctx, apartmentID)
}

func (t *fakeTx) fail(op string) error {
	if t.db.failOn == op {
		return t.db.failErr
	}
	return nil
}

func (t *fakeTx) LockApartment(_ context.Context, _ int64) error { return t.fail("LockApartment") }

func (t *fakeTx) FindInProgressAudit(_ context.Context, apartmentID int64) (*models.Audit, error) {
	for _, a := range t.s.audits {
		if a.ApartmentID == apartmentID && a.Status == models.AuditStatusInProgress {
			return &a, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) InsertAudit(_ context.Context, a models.Audit) (*models.Audit, error) {
	if err := t.fail("InsertAudit"); err != nil {
		return nil, err
	}
	a.ID = t.s.id()
	t.s.audits[a.ID] = a
	return &a, nil
}

func (t *fakeTx) LockAudit(_ context.Context, auditID int64) (*models.Audit, error) {
	a, ok := t.s.audits[auditID]
	if !ok {
		return nil, models.ErrAuditNotFound
	}
	return &a, nil
}

func (t *fakeTx) UpdateAuditStatus(_ context.Context, a models.Audit) (*models.Audit, error) {
	if err := t.fail("UpdateAuditStatus"); err != nil {
		return nil, err
	}
	if _, ok := t.s.audits[a.ID]; !ok {
		return nil, models.ErrAuditNotFound
	}
	a.UpdatedAt = testNow
	t.s.audits[a.ID] = a
	return &a, nil
}

func (t *fakeTx) UpdateCompletionRate(_ context.Context, auditID int64, rate float64) error {
	a, ok := t.s.audits[auditID]
	if !ok {
		return models.ErrAuditNotFound
	}
	a.CompletionRate = rate
	t.s.audits[auditID] = a
	return nil
}

func (t *fakeTx) AppendStatusHistory(_ context.Context, h models.AuditStatusHistory) error {
	h.ID = t.s.id()
	t.s.history = append(t.s.history, h)
	return nil
}

func (t *fakeTx) insertItem(auditID int64, d models.AuditItemDraft) models.AuditItem {
	item := models.AuditItem{
		ID:                t.s.id(),
		AuditID:           auditID,
		QuestionID:        d.QuestionID,
		TargetType:        d.TargetType,
		SpaceID:           d.SpaceID,
		ElementID:         d.ElementID,
		QuestionCode:      d.QuestionCode,
		QuestionText:      d.QuestionText,
		AnswerType:        d.AnswerType,
		Category:          d.Category,
		Impact:            d.Impact,
		IsMandatory:       d.IsMandatory,
		Weight:            d.Weight,
		SortOrder:         d.SortOrder,
		IsVisible:         true,
		ParentAuditItemID: d.ParentAuditItemID,
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}
	for _, o := range d.Options {
		o.ID = t.s.id()
		o.AuditItemID = item.ID
		item.Options = append(item.Options, o)
	}
	t.s.items[item.ID] = item
	return item
}

func (t *fakeTx) InsertItems(_ context.Context, auditID int64, drafts []models.AuditItemDraft) ([]models.AuditItem, error) {
	if err := t.fail("InsertItems"); err != nil {
		return nil, err
	}
	out := make([]models.AuditItem, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, t.insertItem(auditID, d))
	}
	return out, nil
}

func (t *fakeTx) InsertFollowUpItem(ctx context.Context, auditID int64, d models.AuditItemDraft) (*models.AuditItem, bool, error) {
	if err := t.fail("InsertFollowUpItem"); err != nil {
		return nil, false, err
	}
	if exists, _ := t.FollowUpExists(ctx, *d.ParentAuditItemID, d.QuestionID); exists {
		return nil, false, nil
	}
	item := t.insertItem(auditID, d)
	return &item, true, nil
}

func (t *fakeTx) FollowUpExists(_ context.Context, parentItemID, questionID int64) (bool, error) {
	for _, it := range t.s.items {
		if it.ParentAuditItemID != nil && *it.ParentAuditItemID == parentItemID && it.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) GetItem(_ context.Context, auditID, itemID int64) (*models.AuditItem, error) {
	it, ok := t.s.items[itemID]
	if !ok || it.AuditID != auditID {
		return nil, models.ErrAuditItemNotFound
	}
	return &it, nil
}

func (t *fakeTx) MarkItemAnswered(_ context.Context, auditID, itemID int64, at time.Time) error {
	it, ok := t.s.items[itemID]
	if !ok || it.AuditID != auditID {
		return models.ErrAuditItemNotFound
	}
	if it.IsAnswered {
		return models.ErrAlreadyAnswered
	}
	t.s.items[itemID] = it.Answered(at)
	return nil
}

func (t *fakeTx) CountItems(_ context.Context, auditID int64) (int, int, error) {
	var total, answered int
	for _, it := range t.s.items {
		if it.AuditID != auditID {
			continue
		}
		total++
		if it.IsAnswered {
			answered++
		}
	}
	return total, answered, nil
}

func (t *fakeTx) CountUnansweredMandatory(_ context.Context, auditID int64) (int, error) {
	n := 0
	for _, it := range t.s.items {
		if it.AuditID == auditID && it.IsMandatory && !it.IsAnswered {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) InsertResponse(_ context.Context, r models.AuditResponse) (*models.AuditResponse, error) {
	if err := t.fail("InsertResponse"); err != nil {
		return nil, err
	}
	if _, dup := t.s.responses[r.AuditItemID]; dup {
		return nil, models.ErrAlreadyAnswered
	}
	r.ID = t.s.id()
	t.s.responses[r.AuditItemID] = r
	return &r, nil
}

func (t *fakeTx) LinkSelectedOptions(_ context.Context, responseID int64, optionIDs []int64) error {
	t.s.links[responseID] = slices.Clone(optionIDs)
	return nil
}

func (t *fakeTx) InsertPhotos(_ context.Context, responseID int64, photos []models.PhotoUpload) ([]models.AuditPhoto, error) {
	if err := t.fail("InsertPhotos"); err != nil {
		return nil, err
	}
	out := make([]models.AuditPhoto, 0, len(photos))
	for _, p := range photos {
		ph := models.AuditPhoto{
			ID:              t.s.id(),
			AuditResponseID: responseID,
			URL:             p.URL,
			StorageKey:      p.StorageKey,
			ContentType:     p.ContentType,
			SizeBytes:       p.SizeBytes,
			CreatedAt:       testNow,
		}
		t.s.photos = append(t.s.photos, ph)
		out = append(out, ph)
	}
	return out, nil
}

func (t *fakeTx) InsertIncidence(_ context.Context, inc models.AuditIncidence) (*models.AuditIncidence, error) {
	if err := t.fail("InsertIncidence"); err != nil {
		return nil, err
	}
	inc.ID = t.s.id()
	t.s.incidences = append(t.s.incidences, inc)
	return &inc, nil
}

// AuditReader over committed state.

func (db *fakeDB) GetAudit(_ context.Context, auditID int64) (*models.Audit, error) {
	s := db.snapshot()
	a, ok := s.audits[auditID]
	if !ok {
		return nil, models.ErrAuditNotFound
	}
	return &a, nil
}

func (db *fakeDB) GetAuditByUUID(_ context.Context, id string) (*models.Audit, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, models.ErrAuditNotFound
	}
	for _, a := range db.snapshot().audits {
		if a.UUID == u {
			return &a, nil
		}
	}
	return nil, models.ErrAuditNotFound
}

func (db *fakeDB) ListAudits(_ context.Context, apartmentID int64, status models.AuditStatus, limit, offset int) ([]models.Audit, bool, error) {
	var out []models.Audit
	for _, a := range db.snapshot().audits {
		if a.ApartmentID == apartmentID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b models.Audit) int { return int(b.ID - a.ID) })
	if offset >= len(out) {
		return []models.Audit{}, false, nil
	}
	out = out[offset:]
	hasMore := len(out) > limit
	if hasMore {
		out = out[:limit]
	}
	return out, hasMore, nil
}

func (db *fakeDB) ListItems(_ context.Context, auditID int64) ([]models.AuditItem, error) {
	return db.itemsOf(auditID), nil
}

func (db *fakeDB) GetResponse(_ context.Context, auditID, itemID int64) (*models.AuditResponse, error) {
	r, ok := db.snapshot().responses[itemID]
	if !ok || r.AuditID != auditID {
		return nil, models.ErrResponseNotFound
	}
	return &r, nil
}

func (db *fakeDB) ListIncidences(_ context.Context, auditID int64) ([]models.AuditIncidence, error) {
	var out []models.AuditIncidence
	for _, inc := range db.snapshot().incidences {
		if inc.AuditID == auditID {
			out = append(out, inc)
		}
	}
	return out, nil
}

func (db *fakeDB) ListStatusHistory(_ context.Context, auditID int64) ([]models.AuditStatusHistory, error) {
	var out []models.AuditStatusHistory
	for _, h := range db.snapshot().history {
		if h.AuditID == auditID {
			out = append(out, h)
		}
	}
	return out, nil
}
