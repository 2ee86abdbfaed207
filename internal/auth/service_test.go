package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type memoryUserRepo struct {
	byEmail map[string]*User
	seq     int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: make(map[string]*User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, data CreateUserData) (*User, error) {
	if _, ok := r.byEmail[data.Email]; ok {
		return nil, ErrEmailTaken
	}
	r.seq++
	user := &User{
		ID:           fmt.Sprintf("user-%d", r.seq),
		Email:        data.Email,
		FullName:     data.FullName,
		PasswordHash: data.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.byEmail[data.Email] = user
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

type memoryAPIKeyRepo struct {
	byID map[string]*APIKey
	seq  int
}

func newMemoryAPIKeyRepo() *memoryAPIKeyRepo {
	return &memoryAPIKeyRepo{byID: make(map[string]*APIKey)}
}

func (r *memoryAPIKeyRepo) Create(ctx context.Context, data CreateAPIKeyData) (*APIKey, error) {
	r.seq++
	key := &APIKey{
		ID:          fmt.Sprintf("key-%d", r.seq),
		Key:         data.Key,
		Name:        data.Name,
		Description: data.Description,
		UserID:      data.UserID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	r.byID[key.ID] = key
	clone := *key
	return &clone, nil
}

func (r *memoryAPIKeyRepo) FindByKey(ctx context.Context, key string) (*APIKey, error) {
	for _, k := range r.byID {
		if k.Key == key {
			clone := *k
			return &clone, nil
		}
	}
	return nil, ErrAPIKeyNotFound
}

func (r *memoryAPIKeyRepo) FindByUserID(ctx context.Context, userID string) ([]APIKey, error) {
	keys := make([]APIKey, 0)
	for _, k := range r.byID {
		if k.UserID == userID {
			keys = append(keys, *k)
		}
	}
	return keys, nil
}

func (r *memoryAPIKeyRepo) UpdateLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	k, ok := r.byID[id]
	if !ok {
		return ErrAPIKeyNotFound
	}
	k.LastUsedAt = &usedAt
	return nil
}

func (r *memoryAPIKeyRepo) Deactivate(ctx context.Context, id string) (*APIKey, error) {
	k, ok := r.byID[id]
	if !ok {
		return nil, ErrAPIKeyNotFound
	}
	k.IsActive = false
	clone := *k
	return &clone, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(newMemoryUserRepo(), newMemoryAPIKeyRepo(), []byte("test-secret"), time.Hour, 4)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_SignUpAndSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "ops@example.com", "Plant Ops", "s3cret")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}
	if session.User.PasswordHash != "" {
		t.Fatal("expected password hash to be cleared")
	}

	claims, err := ParseJWT(session.Token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Fatalf("expected token subject %q, got %q", session.User.ID, claims.UserID)
	}

	again, err := svc.SignIn(ctx, "ops@example.com", "s3cret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if again.User.ID != session.User.ID {
		t.Fatalf("expected same user, got %q and %q", again.User.ID, session.User.ID)
	}
}

func TestService_SignUpDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "ops@example.com", "Plant Ops", "s3cret"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	_, err := svc.SignUp(ctx, "ops@example.com", "Someone Else", "other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_SignInWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "ops@example.com", "Plant Ops", "s3cret"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	_, err := svc.SignIn(ctx, "ops@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = svc.SignIn(ctx, "nobody@example.com", "s3cret")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestService_APIKeyLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key, err := svc.GenerateAPIKey(ctx, "user-1", "ingest", "plant floor gateway")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(key.Key) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(key.Key))
	}
	if !key.IsActive {
		t.Fatal("expected new key to be active")
	}

	validated, err := svc.ValidateAPIKey(ctx, key.Key)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.ID != key.ID {
		t.Fatalf("expected key %q, got %q", key.ID, validated.ID)
	}

	keys, err := svc.ListAPIKeys(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	if keys[0].LastUsedAt == nil {
		t.Fatal("expected last used timestamp after validation")
	}

	if _, err := svc.DeactivateAPIKey(ctx, key.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.ValidateAPIKey(ctx, key.Key); !errors.Is(err, ErrAPIKeyInvalid) {
		t.Fatalf("expected ErrAPIKeyInvalid after deactivation, got %v", err)
	}
}

func TestService_ValidateUnknownKey(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ValidateAPIKey(context.Background(), "deadbeef"); !errors.Is(err, ErrAPIKeyInvalid) {
		t.Fatalf("expected ErrAPIKeyInvalid, got %v", err)
	}
}
