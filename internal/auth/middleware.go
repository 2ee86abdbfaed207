package auth

import (
	"context"
	"net/http"
	"strings"
)

// KeyValidator checks a presented API key.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, key string) (*APIKey, error)
}

// Middleware validates JWTs on protected routes and API keys on ingest routes.
type Middleware struct {
	Secret []byte
	Policy Policy
	Keys   KeyValidator
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy, keys KeyValidator) *Middleware {
	return &Middleware{Secret: secret, Policy: policy, Keys: keys}
}

// Wrap applies authentication to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		if m.Policy.IsAPIKeyPath(r) && m.Keys != nil {
			key := strings.TrimSpace(r.Header.Get("x-api-key"))
			record, err := m.Keys.ValidateAPIKey(r.Context(), key)
			if err != nil {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			ctx := WithAPIKey(r.Context(), record)
			ctx = WithUser(ctx, record.UserID, "")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token := extractBearer(r)
		claims, err := ParseJWT(token, m.Secret)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := WithUser(r.Context(), claims.UserID, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
