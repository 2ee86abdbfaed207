package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"energy-monitor/internal/auth"
)

const apiKeyTable = "api_keys"

const apiKeySelect = `id, key, name, description, user_id, is_active, last_used_at, created_at`

// APIKeyRepository is a Postgres implementation of auth.APIKeyRepository.
type APIKeyRepository struct {
	db *sql.DB
}

// NewAPIKeyRepository constructs a repository.
func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create inserts a key record.
func (r *APIKeyRepository) Create(ctx context.Context, data auth.CreateAPIKeyData) (*auth.APIKey, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("api key repo: nil db")
	}

	const query = `
INSERT INTO ` + apiKeyTable + ` (id, key, name, description, user_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + apiKeySelect

	return scanAPIKey(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), data.Key, data.Name, data.Description, data.UserID))
}

// FindByKey looks up a record by its key material.
func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (*auth.APIKey, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("api key repo: nil db")
	}

	const query = `
SELECT ` + apiKeySelect + `
FROM ` + apiKeyTable + `
WHERE key = $1`

	return scanAPIKey(r.db.QueryRowContext(ctx, query, key))
}

// FindByUserID returns all keys owned by a user, newest first.
func (r *APIKeyRepository) FindByUserID(ctx context.Context, userID string) ([]auth.APIKey, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("api key repo: nil db")
	}

	const query = `
SELECT ` + apiKeySelect + `
FROM ` + apiKeyTable + `
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]auth.APIKey, 0)
	for rows.Next() {
		var k auth.APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Key, &k.Name, &k.Description, &k.UserID, &k.IsActive, &lastUsed, &k.CreatedAt); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			k.LastUsedAt = &t
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// UpdateLastUsed records the moment a key authenticated a request.
func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("api key repo: nil db")
	}

	const query = `UPDATE ` + apiKeyTable + ` SET last_used_at = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrAPIKeyNotFound
	}
	return nil
}

// Deactivate disables a key and returns the updated record.
func (r *APIKeyRepository) Deactivate(ctx context.Context, id string) (*auth.APIKey, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("api key repo: nil db")
	}

	const query = `
UPDATE ` + apiKeyTable + `
SET is_active = FALSE
WHERE id = $1
RETURNING ` + apiKeySelect

	return scanAPIKey(r.db.QueryRowContext(ctx, query, id))
}

func scanAPIKey(row *sql.Row) (*auth.APIKey, error) {
	var k auth.APIKey
	var lastUsed sql.NullTime
	err := row.Scan(&k.ID, &k.Key, &k.Name, &k.Description, &k.UserID, &k.IsActive, &lastUsed, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		k.LastUsedAt = &t
	}
	return &k, nil
}
