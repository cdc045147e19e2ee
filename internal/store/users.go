package store

import (
	"context"
	"time"
)

type User struct {
	ID          string
	Email       string
	Password    string // bcrypt hash
	DisplayName string
	CreatedAt   string
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

const userColumns = `id, email, password, display_name, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var created time.Time
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &created)
	u.CreatedAt = formatTime(created)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		p.ID, p.Email, p.Password, p.DisplayName)
	u, err := scanUser(row)
	return u, translate(err, "create user")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	return u, translate(err, "get user by email")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	return u, translate(err, "get user")
}
