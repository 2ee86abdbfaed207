package auth

import (
	"context"
	"errors"
	"time"
)

// ErrAPIKeyNotFound is returned when no API key matches a lookup.
var ErrAPIKeyNotFound = errors.New("auth: api key not found")

// ErrAPIKeyInvalid is returned when a presented key is unknown or inactive.
var ErrAPIKeyInvalid = errors.New("auth: api key invalid or inactive")

// APIKey authenticates device ingestion on behalf of its owning user.
type APIKey struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	UserID      string     `json:"userId"`
	IsActive    bool       `json:"isActive"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateAPIKeyData is the persistence input for a new API key.
type CreateAPIKeyData struct {
	Key         string
	Name        string
	Description string
	UserID      string
}

// APIKeyRepository persists API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, data CreateAPIKeyData) (*APIKey, error)
	// FindByKey returns ErrAPIKeyNotFound for an unknown key.
	FindByKey(ctx context.Context, key string) (*APIKey, error)
	FindByUserID(ctx context.Context, userID string) ([]APIKey, error)
	UpdateLastUsed(ctx context.Context, id string, usedAt time.Time) error
	// Deactivate returns ErrAPIKeyNotFound for an unknown id.
	Deactivate(ctx context.Context, id string) (*APIKey, error)
}
