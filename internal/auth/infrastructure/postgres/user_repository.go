package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"energy-monitor/internal/auth"
)

const userTable = "users"

// UserRepository is a Postgres implementation of auth.UserRepository.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an account. A duplicate email maps to auth.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, data auth.CreateUserData) (*auth.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}

	const query = `
INSERT INTO ` + userTable + ` (id, email, full_name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, email, full_name, password_hash, created_at, updated_at`

	var user auth.User
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), data.Email, data.FullName, data.PasswordHash).
		Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, auth.ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail looks up an account by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}

	const query = `
SELECT id, email, full_name, password_hash, created_at, updated_at
FROM ` + userTable + `
WHERE email = $1`

	var user auth.User
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
