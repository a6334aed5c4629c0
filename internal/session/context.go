package session

import (
	"context"

	"github.com/leadreach/leadreach/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession adds the session to the context.
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// FromContext retrieves the session from the context.
// Returns nil for anonymous requests.
func FromContext(ctx context.Context) *model.Session {
	sess, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return sess
}

// MustFromContext retrieves the session from the context.
// Panics if not present (use only behind RequireSession).
func MustFromContext(ctx context.Context) *model.Session {
	sess := FromContext(ctx)
	if sess == nil {
		panic("session not found - ensure RequireSession middleware is applied")
	}
	return sess
}

// UsernameFromContext returns the logged-in username or "".
func UsernameFromContext(ctx context.Context) string {
	sess := FromContext(ctx)
	if sess == nil {
		return ""
	}
	return sess.User.Username
}
