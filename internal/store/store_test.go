package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/minpen/minpen/internal/typeid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("MINPEN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MINPEN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestUsersAndSketches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	email := typeid.NewUserID() + "@example.com"
	u, err := s.CreateUser(ctx, CreateUserParams{ID: typeid.NewUserID(), Email: email, Password: "hash", DisplayName: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, CreateUserParams{ID: typeid.NewUserID(), Email: email, Password: "x", DisplayName: "B"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email err = %v", err)
	}
	got, err := s.GetUserByEmail(ctx, email)
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := s.GetUserByID(ctx, "user_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}

	sk, err := s.CreateSketch(ctx, CreateSketchParams{ID: typeid.NewSketchID(), OwnerID: u.ID, Name: "one"})
	if err != nil {
		t.Fatal(err)
	}
	list, err := s.ListSketches(ctx, u.ID)
	if err != nil || len(list) != 1 || list[0].ID != sk.ID {
		t.Errorf("ListSketches = %+v, %v", list, err)
	}

	for v := 1; v <= 2; v++ {
		doc := json.RawMessage(`{"sketch":{"version":` + string(rune('0'+v)) + `}}`)
		if _, err := s.CreateSnapshot(ctx, CreateSnapshotParams{ID: typeid.NewSnapshotID(), SketchID: sk.ID, Version: v, Document: doc}); err != nil {
			t.Fatal(err)
		}
	}
	latest, err := s.GetLatestSnapshot(ctx, sk.ID)
	if err != nil || latest.Version != 2 {
		t.Errorf("latest = %+v, %v", latest, err)
	}

	recs := []json.RawMessage{json.RawMessage(`{"kind":"add_segments"}`), json.RawMessage(`{"kind":"composite"}`)}
	if err := s.AppendRecords(ctx, sk.ID, []string{typeid.NewRecordID(), typeid.NewRecordID()}, recs); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecords(ctx, sk.ID, []string{typeid.NewRecordID()}, recs[:1]); err != nil {
		t.Fatal(err)
	}
	stored, err := s.ListRecords(ctx, sk.ID)
	if err != nil || len(stored) != 3 {
		t.Fatalf("ListRecords = %d, %v", len(stored), err)
	}
	for i, r := range stored {
		if r.Seq != i+1 {
			t.Errorf("record %d seq = %d", i, r.Seq)
		}
	}

	if err := s.DeleteSketch(ctx, sk.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSketch(ctx, sk.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted sketch err = %v", err)
	}
}
