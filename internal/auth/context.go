package auth

import "context"

type contextKey string

const (
	contextKeyUserID contextKey = "auth.user_id"
	contextKeyEmail  contextKey = "auth.email"
	contextKeyAPIKey contextKey = "auth.api_key"
)

// WithUser stores the authenticated user identity in context.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID, userID)
	ctx = context.WithValue(ctx, contextKeyEmail, email)
	return ctx
}

// UserIDFromContext extracts the authenticated user id from context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}

// EmailFromContext extracts the authenticated email from context.
func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if email, ok := ctx.Value(contextKeyEmail).(string); ok {
		return email
	}
	return ""
}

// WithAPIKey stores the validated API key record in context.
func WithAPIKey(ctx context.Context, key *APIKey) context.Context {
	return context.WithValue(ctx, contextKeyAPIKey, key)
}

// APIKeyFromContext extracts the validated API key record from context.
func APIKeyFromContext(ctx context.Context) *APIKey {
	if ctx == nil {
		return nil
	}
	if key, ok := ctx.Value(contextKeyAPIKey).(*APIKey); ok {
		return key
	}
	return nil
}
