package auth

import "context"

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const sessionKey contextKey = "session"

// Session identifies the caller of an authenticated request.
type Session struct {
	ID    string
	TabID int
	Scope string
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session injected by the JWT middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
