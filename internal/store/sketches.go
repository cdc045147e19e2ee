package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type Sketch struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt string
	UpdatedAt string
}

type CreateSketchParams struct {
	ID      string
	OwnerID string
	Name    string
}

const sketchColumns = `id, owner_id, name, created_at, updated_at`

func scanSketch(row pgx.Row) (Sketch, error) {
	var sk Sketch
	var created, updated time.Time
	err := row.Scan(&sk.ID, &sk.OwnerID, &sk.Name, &created, &updated)
	sk.CreatedAt = formatTime(created)
	sk.UpdatedAt = formatTime(updated)
	return sk, err
}

func (s *Store) CreateSketch(ctx context.Context, p CreateSketchParams) (Sketch, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sketches (id, owner_id, name) VALUES ($1, $2, $3) RETURNING `+sketchColumns,
		p.ID, p.OwnerID, p.Name)
	sk, err := scanSketch(row)
	return sk, translate(err, "create sketch")
}

func (s *Store) GetSketch(ctx context.Context, id string) (Sketch, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sketchColumns+` FROM sketches WHERE id = $1`, id)
	sk, err := scanSketch(row)
	return sk, translate(err, "get sketch")
}

// ListSketches returns the owner's sketches, most recently updated first.
func (s *Store) ListSketches(ctx context.Context, ownerID string) ([]Sketch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sketchColumns+` FROM sketches WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, translate(err, "list sketches")
	}
	sketches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Sketch, error) {
		return scanSketch(row)
	})
	return sketches, translate(err, "list sketches")
}

func (s *Store) DeleteSketch(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sketches WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete sketch")
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "delete sketch")
	}
	return nil
}
