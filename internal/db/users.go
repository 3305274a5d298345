package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// User represents a users row
type User struct {
	ID    string
	Email string
	Name  string
	Role  string
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx,
		`SELECT id, email, name, role FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

func (q *Queries) CreateUser(ctx context.Context, id, email, name, role string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (id, email, name, role) VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, role`,
		id, email, name, role,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	return u, err
}
