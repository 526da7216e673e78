package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/adlens/internal/domain"
)

// ErrUserNotFound is returned when a user ID is unknown.
var ErrUserNotFound = errors.New("user not found")

// UserRepo stores dashboard users.
type UserRepo struct{ db *sql.DB }

// NewUserRepo creates a Postgres-backed user repository.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// FindOrCreate inserts the user keyed by e-mail, refreshing name and picture
// on every login.
func (r *UserRepo) FindOrCreate(ctx context.Context, email, name, picture string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name, picture, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (email) DO UPDATE
			SET name = EXCLUDED.name, picture = EXCLUDED.picture
		RETURNING id, email, name, picture, created_at
	`, uuid.New().String(), strings.ToLower(email), name, picture).Scan(
		&u.ID, &u.Email, &u.Name, &u.Picture, &u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, picture, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
