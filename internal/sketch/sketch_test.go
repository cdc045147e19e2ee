package sketch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/auth"
	"github.com/minpen/minpen/internal/collab"
	"github.com/minpen/minpen/internal/document"
	"github.com/minpen/minpen/internal/segment"
	"github.com/minpen/minpen/internal/store"
)

type memStore struct {
	sketches  map[string]store.Sketch
	snapshots map[string][]store.Snapshot
	records   map[string][]store.ActionRecord
}

func newMemStore() *memStore {
	return &memStore{
		sketches:  make(map[string]store.Sketch),
		snapshots: make(map[string][]store.Snapshot),
		records:   make(map[string][]store.ActionRecord),
	}
}

func (m *memStore) CreateSketch(_ context.Context, p store.CreateSketchParams) (store.Sketch, error) {
	sk := store.Sketch{ID: p.ID, OwnerID: p.OwnerID, Name: p.Name, CreatedAt: "2026-01-01T00:00:00Z"}
	m.sketches[p.ID] = sk
	return sk, nil
}

func (m *memStore) GetSketch(_ context.Context, id string) (store.Sketch, error) {
	sk, ok := m.sketches[id]
	if !ok {
		return store.Sketch{}, store.ErrNotFound
	}
	return sk, nil
}

func (m *memStore) ListSketches(_ context.Context, ownerID string) ([]store.Sketch, error) {
	var out []store.Sketch
	for _, sk := range m.sketches {
		if sk.OwnerID == ownerID {
			out = append(out, sk)
		}
	}
	return out, nil
}

func (m *memStore) DeleteSketch(_ context.Context, id string) error {
	if _, ok := m.sketches[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.sketches, id)
	return nil
}

func (m *memStore) CreateSnapshot(_ context.Context, p store.CreateSnapshotParams) (store.Snapshot, error) {
	for _, s := range m.snapshots[p.SketchID] {
		if s.Version == p.Version {
			return store.Snapshot{}, store.ErrConflict
		}
	}
	snap := store.Snapshot{ID: p.ID, SketchID: p.SketchID, Version: p.Version, Document: p.Document}
	m.snapshots[p.SketchID] = append(m.snapshots[p.SketchID], snap)
	return snap, nil
}

func (m *memStore) GetLatestSnapshot(_ context.Context, sketchID string) (store.Snapshot, error) {
	snaps := m.snapshots[sketchID]
	if len(snaps) == 0 {
		return store.Snapshot{}, store.ErrNotFound
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.Version > latest.Version {
			latest = s
		}
	}
	return latest, nil
}

func (m *memStore) AppendRecords(_ context.Context, sketchID string, ids []string, records []json.RawMessage) error {
	next := len(m.records[sketchID]) + 1
	for i, rec := range records {
		m.records[sketchID] = append(m.records[sketchID], store.ActionRecord{
			ID: ids[i], SketchID: sketchID, Seq: next + i, Record: rec,
		})
	}
	return nil
}

func (m *memStore) ListRecords(_ context.Context, sketchID string) ([]store.ActionRecord, error) {
	return m.records[sketchID], nil
}

type fakeExporter struct {
	records []action.Record
	err     error
}

func (f *fakeExporter) Export(context.Context, string) ([]action.Record, error) {
	return f.records, f.err
}

func TestCreateSeedsEmptySnapshot(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	ctx := context.Background()

	sk, err := svc.Create(ctx, "Notes", "user_a")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sk.ID, "sketch_") {
		t.Errorf("id = %q", sk.ID)
	}

	doc, version, err := svc.LoadDocument(ctx, sk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 || doc.Sketch.Name != "Notes" || len(doc.Segments) != 0 {
		t.Errorf("seed = v%d %+v", version, doc.Sketch)
	}
}

func TestOwnerChecks(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	ctx := context.Background()
	sk, err := svc.Create(ctx, "Mine", "user_a")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, sk.ID, "user_b"); !errors.Is(err, ErrForbidden) {
		t.Errorf("get by stranger: %v", err)
	}
	if err := svc.Delete(ctx, sk.ID, "user_b"); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by stranger: %v", err)
	}
	if _, err := svc.Get(ctx, "sketch_missing", "user_a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
	if err := svc.Delete(ctx, sk.ID, "user_a"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Authorize(ctx, sk.ID, "user_a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: %v", err)
	}
}

func TestSaveDocumentAndRecords(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	ctx := context.Background()
	sk, err := svc.Create(ctx, "S", "user_a")
	if err != nil {
		t.Fatal(err)
	}

	doc, _, err := svc.LoadDocument(ctx, sk.ID)
	if err != nil {
		t.Fatal(err)
	}
	doc.Sets[segment.SetID(4)] = segment.SetInfo{Label: "x"}
	if err := svc.SaveDocument(ctx, sk.ID, 2, doc); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveDocument(ctx, sk.ID, 2, doc); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate version: %v", err)
	}
	got, version, err := svc.LoadDocument(ctx, sk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 || got.Sets[4].Label != "x" {
		t.Errorf("loaded v%d sets=%v", version, got.Sets)
	}

	recs := []action.Record{{Kind: action.KindAdd}, {Kind: action.KindDelete, Indices: []int{0}}}
	if err := svc.AppendRecords(ctx, sk.ID, recs); err != nil {
		t.Fatal(err)
	}
	listed, err := svc.ListRecords(ctx, sk.ID, "user_a")
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 || listed[1].Seq != 2 {
		t.Fatalf("records = %+v", listed)
	}
	var rec action.Record
	if err := json.Unmarshal(listed[1].Record, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Kind != action.KindDelete {
		t.Errorf("kind = %v", rec.Kind)
	}
}

func TestExport(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	ctx := context.Background()
	sk, err := svc.Create(ctx, "S", "user_a")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Export(ctx, sk.ID, "user_a"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("no exporter: %v", err)
	}
	svc.SetExporter(&fakeExporter{err: collab.ErrNoRoom})
	if _, err := svc.Export(ctx, sk.ID, "user_a"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("closed room: %v", err)
	}
	svc.SetExporter(&fakeExporter{records: []action.Record{{Kind: action.KindAdd}}})
	recs, err := svc.Export(ctx, sk.ID, "user_a")
	if err != nil || len(recs) != 1 {
		t.Errorf("export = %v, %v", recs, err)
	}
}

func TestHandlerRoutes(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	h := NewHandler(svc)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), req.Header.Get("X-User"))))
		})
	})
	h.Routes(r)

	do := func(method, path, user, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("POST", "/sketches", "user_a", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name = %d", rec.Code)
	}
	rec := do("POST", "/sketches", "user_a", `{"name":"Board"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	var sk Sketch
	if err := json.Unmarshal(rec.Body.Bytes(), &sk); err != nil {
		t.Fatal(err)
	}

	if rec := do("GET", "/sketches", "user_a", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Board") {
		t.Errorf("list = %d %s", rec.Code, rec.Body)
	}
	if rec := do("GET", "/sketches/"+sk.ID, "user_b", ""); rec.Code != http.StatusForbidden {
		t.Errorf("stranger get = %d", rec.Code)
	}

	rec = do("GET", "/sketches/"+sk.ID+"/snapshots/latest", "user_a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot = %d", rec.Code)
	}
	doc, err := document.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Sketch.ID != sk.ID {
		t.Errorf("snapshot sketch = %q", doc.Sketch.ID)
	}

	if rec := do("POST", "/sketches/"+sk.ID+"/export", "user_a", ""); rec.Code != http.StatusConflict {
		t.Errorf("export closed = %d", rec.Code)
	}
	if rec := do("DELETE", "/sketches/"+sk.ID, "user_a", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do("GET", "/sketches/"+sk.ID, "user_a", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d", rec.Code)
	}
}
