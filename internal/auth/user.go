package auth

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when no user matches a lookup.
var ErrUserNotFound = errors.New("auth: user not found")

// ErrEmailTaken is returned when a sign-up email already exists.
var ErrEmailTaken = errors.New("auth: email already registered")

// ErrInvalidCredentials is returned on a failed sign-in.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// User is an account that can sign in and own API keys. PasswordHash never
// leaves this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserData is the persistence input for a new user.
type CreateUserData struct {
	Email        string
	FullName     string
	PasswordHash string
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Create returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, data CreateUserData) (*User, error)
	// FindByEmail returns ErrUserNotFound when the email has no account.
	FindByEmail(ctx context.Context, email string) (*User, error)
}
