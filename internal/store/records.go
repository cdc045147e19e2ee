package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

// ActionRecord is one exported edit.
type ActionRecord struct {
	ID        string
	SketchID  string
	Seq       int
	Record    json.RawMessage
	CreatedAt string
}

// AppendRecords stores records after the sketch's existing history, in
// order. ids and records must have the same length.
func (s *Store) AppendRecords(ctx context.Context, sketchID string, ids []string, records []json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Lock the sketch row so concurrent appends serialize on seq.
		if _, err := tx.Exec(ctx, `SELECT 1 FROM sketches WHERE id = $1 FOR UPDATE`, sketchID); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM action_records WHERE sketch_id = $1`, sketchID,
		).Scan(&next); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, rec := range records {
			batch.Queue(
				`INSERT INTO action_records (id, sketch_id, seq, record) VALUES ($1, $2, $3, $4)`,
				ids[i], sketchID, next+i, []byte(rec))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	return translate(err, "append records")
}

// ListRecords returns a sketch's history in replay order.
func (s *Store) ListRecords(ctx context.Context, sketchID string) ([]ActionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sketch_id, seq, record, created_at FROM action_records
		 WHERE sketch_id = $1 ORDER BY seq`, sketchID)
	if err != nil {
		return nil, translate(err, "list records")
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ActionRecord, error) {
		var r ActionRecord
		var created time.Time
		var rec []byte
		err := row.Scan(&r.ID, &r.SketchID, &r.Seq, &rec, &created)
		r.Record = rec
		r.CreatedAt = formatTime(created)
		return r, err
	})
	return recs, translate(err, "list records")
}
