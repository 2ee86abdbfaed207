package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service handles user sign-up/sign-in and API key management.
type Service struct {
	users      UserRepository
	apiKeys    APIKeyRepository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewService constructs an auth service.
func NewService(users UserRepository, apiKeys APIKeyRepository, secret []byte, tokenTTL time.Duration, bcryptCost int) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth service: nil user repository")
	}
	if apiKeys == nil {
		return nil, errors.New("auth service: nil api key repository")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth service: empty secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 4 * time.Hour
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, apiKeys: apiKeys, secret: secret, tokenTTL: tokenTTL, bcryptCost: bcryptCost}, nil
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// SignUp creates an account and issues its first session token.
func (s *Service) SignUp(ctx context.Context, email, fullName, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, CreateUserData{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}
	return s.session(*user)
}

// SignIn verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(*user)
}

// GenerateAPIKey mints a random key for a user.
func (s *Service) GenerateAPIKey(ctx context.Context, userID, name, description string) (*APIKey, error) {
	if userID == "" || name == "" {
		return nil, errors.New("auth service: empty user id or key name")
	}

	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, err
	}

	return s.apiKeys.Create(ctx, CreateAPIKeyData{
		Key:         hex.EncodeToString(buf[:]),
		Name:        name,
		Description: description,
		UserID:      userID,
	})
}

// ValidateAPIKey checks a presented key and records its use.
func (s *Service) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	if key == "" {
		return nil, ErrAPIKeyInvalid
	}

	record, err := s.apiKeys.FindByKey(ctx, key)
	if errors.Is(err, ErrAPIKeyNotFound) {
		return nil, ErrAPIKeyInvalid
	}
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, ErrAPIKeyInvalid
	}

	if err := s.apiKeys.UpdateLastUsed(ctx, record.ID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return record, nil
}

// ListAPIKeys returns all keys owned by a user.
func (s *Service) ListAPIKeys(ctx context.Context, userID string) ([]APIKey, error) {
	return s.apiKeys.FindByUserID(ctx, userID)
}

// DeactivateAPIKey disables a key without deleting its record.
func (s *Service) DeactivateAPIKey(ctx context.Context, id string) (*APIKey, error) {
	return s.apiKeys.Deactivate(ctx, id)
}

func (s *Service) session(user User) (*Session, error) {
	token, err := IssueToken(s.secret, user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &Session{User: user, Token: token}, nil
}
