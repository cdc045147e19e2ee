package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

type Snapshot struct {
	ID        string
	SketchID  string
	Version   int
	Document  json.RawMessage
	CreatedAt string
}

type CreateSnapshotParams struct {
	ID       string
	SketchID string
	Version  int
	Document json.RawMessage
}

// CreateSnapshot stores a document version and bumps the sketch's
// updated_at.
func (s *Store) CreateSnapshot(ctx context.Context, p CreateSnapshotParams) (Snapshot, error) {
	var snap Snapshot
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var created time.Time
		var doc []byte
		err := tx.QueryRow(ctx,
			`INSERT INTO snapshots (id, sketch_id, version, document) VALUES ($1, $2, $3, $4)
			 RETURNING id, sketch_id, version, document, created_at`,
			p.ID, p.SketchID, p.Version, []byte(p.Document),
		).Scan(&snap.ID, &snap.SketchID, &snap.Version, &doc, &created)
		if err != nil {
			return err
		}
		snap.Document = doc
		snap.CreatedAt = formatTime(created)
		_, err = tx.Exec(ctx, `UPDATE sketches SET updated_at = now() WHERE id = $1`, p.SketchID)
		return err
	})
	return snap, translate(err, "create snapshot")
}

// GetLatestSnapshot returns the highest version stored for a sketch.
func (s *Store) GetLatestSnapshot(ctx context.Context, sketchID string) (Snapshot, error) {
	var snap Snapshot
	var created time.Time
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, sketch_id, version, document, created_at FROM snapshots
		 WHERE sketch_id = $1 ORDER BY version DESC LIMIT 1`, sketchID,
	).Scan(&snap.ID, &snap.SketchID, &snap.Version, &doc, &created)
	snap.Document = doc
	snap.CreatedAt = formatTime(created)
	return snap, translate(err, "get latest snapshot")
}
