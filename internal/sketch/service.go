package sketch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/collab"
	"github.com/minpen/minpen/internal/document"
	"github.com/minpen/minpen/internal/store"
	"github.com/minpen/minpen/internal/typeid"
)

var (
	ErrNotFound  = errors.New("sketch not found")
	ErrForbidden = errors.New("forbidden")
	ErrNotOpen   = errors.New("sketch is not open")
	ErrBadName   = errors.New("name must be 1 to 200 characters")
)

const maxNameLen = 200

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	CreateSketch(ctx context.Context, p store.CreateSketchParams) (store.Sketch, error)
	GetSketch(ctx context.Context, id string) (store.Sketch, error)
	ListSketches(ctx context.Context, ownerID string) ([]store.Sketch, error)
	DeleteSketch(ctx context.Context, id string) error
	CreateSnapshot(ctx context.Context, p store.CreateSnapshotParams) (store.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, sketchID string) (store.Snapshot, error)
	AppendRecords(ctx context.Context, sketchID string, ids []string, records []json.RawMessage) error
	ListRecords(ctx context.Context, sketchID string) ([]store.ActionRecord, error)
}

// Exporter flushes the live history of an open sketch.
type Exporter interface {
	Export(ctx context.Context, sketchID string) ([]action.Record, error)
}

type Service struct {
	store    Store
	exporter Exporter
}

func NewService(st Store) *Service {
	return &Service{store: st}
}

// SetExporter connects the live session hub. The hub itself is built from
// the service's loader and saver, so it is attached after construction.
func (s *Service) SetExporter(e Exporter) {
	s.exporter = e
}

type Sketch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Record struct {
	ID        string          `json:"id"`
	Seq       int             `json:"seq"`
	Record    json.RawMessage `json:"record"`
	CreatedAt string          `json:"createdAt"`
}

func fromStore(sk store.Sketch) *Sketch {
	return &Sketch{
		ID:        sk.ID,
		Name:      sk.Name,
		OwnerID:   sk.OwnerID,
		CreatedAt: sk.CreatedAt,
		UpdatedAt: sk.UpdatedAt,
	}
}

// Create stores a new sketch with an empty first snapshot.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Sketch, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, ErrBadName
	}
	sketchID := typeid.NewSketchID()

	dbSketch, err := s.store.CreateSketch(ctx, store.CreateSketchParams{
		ID:      sketchID,
		OwnerID: ownerID,
		Name:    name,
	})
	if err != nil {
		return nil, fmt.Errorf("create sketch: %w", err)
	}

	doc := document.NewEmptySnapshot(sketchID, name)
	doc.Sketch.CreatedAt = dbSketch.CreatedAt
	doc.Sketch.UpdatedAt = dbSketch.CreatedAt
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.store.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		SketchID: sketchID,
		Version:  doc.Sketch.Version,
		Document: docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return fromStore(dbSketch), nil
}

func (s *Service) Get(ctx context.Context, sketchID, userID string) (*Sketch, error) {
	dbSketch, err := s.owned(ctx, sketchID, userID)
	if err != nil {
		return nil, err
	}
	return fromStore(dbSketch), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Sketch, error) {
	dbSketches, err := s.store.ListSketches(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}
	sketches := make([]Sketch, len(dbSketches))
	for i, sk := range dbSketches {
		sketches[i] = *fromStore(sk)
	}
	return sketches, nil
}

func (s *Service) Delete(ctx context.Context, sketchID, userID string) error {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteSketch(ctx, sketchID); err != nil {
		return notFound(err, "delete sketch")
	}
	return nil
}

// Authorize reports whether userID may open sketchID.
func (s *Service) Authorize(ctx context.Context, sketchID, userID string) error {
	_, err := s.owned(ctx, sketchID, userID)
	return err
}

func (s *Service) GetLatestSnapshot(ctx context.Context, sketchID, userID string) (json.RawMessage, error) {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.GetLatestSnapshot(ctx, sketchID)
	if err != nil {
		return nil, notFound(err, "get snapshot")
	}
	return snap.Document, nil
}

func (s *Service) ListRecords(ctx context.Context, sketchID, userID string) ([]Record, error) {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return nil, err
	}
	dbRecs, err := s.store.ListRecords(ctx, sketchID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	recs := make([]Record, len(dbRecs))
	for i, r := range dbRecs {
		recs[i] = Record{ID: r.ID, Seq: r.Seq, Record: r.Record, CreatedAt: r.CreatedAt}
	}
	return recs, nil
}

// Export persists the pending history of an open sketch and returns it.
func (s *Service) Export(ctx context.Context, sketchID, userID string) ([]action.Record, error) {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, ErrNotOpen
	}
	recs, err := s.exporter.Export(ctx, sketchID)
	if errors.Is(err, collab.ErrNoRoom) {
		return nil, ErrNotOpen
	}
	return recs, err
}

// --- Session persistence ---

// LoadDocument returns the latest document of a sketch and its version.
func (s *Service) LoadDocument(ctx context.Context, sketchID string) (*document.Snapshot, int, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, sketchID)
	if err != nil {
		return nil, 0, notFound(err, "get snapshot")
	}
	doc, err := document.Parse(snap.Document)
	if err != nil {
		return nil, 0, err
	}
	return doc, snap.Version, nil
}

// SaveDocument stores doc as a new snapshot version.
func (s *Service) SaveDocument(ctx context.Context, sketchID string, version int, doc *document.Snapshot) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.store.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		SketchID: sketchID,
		Version:  version,
		Document: docJSON,
	})
	if err != nil {
		return fmt.Errorf("save version %d: %w", version, err)
	}
	return nil
}

// AppendRecords stores exported history records after the existing ones.
func (s *Service) AppendRecords(ctx context.Context, sketchID string, records []action.Record) error {
	ids := make([]string, len(records))
	raw := make([]json.RawMessage, len(records))
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		ids[i] = typeid.NewRecordID()
		raw[i] = data
	}
	return s.store.AppendRecords(ctx, sketchID, ids, raw)
}

func (s *Service) owned(ctx context.Context, sketchID, userID string) (store.Sketch, error) {
	dbSketch, err := s.store.GetSketch(ctx, sketchID)
	if err != nil {
		return store.Sketch{}, notFound(err, "get sketch")
	}
	if dbSketch.OwnerID != userID {
		return store.Sketch{}, ErrForbidden
	}
	return dbSketch, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}
