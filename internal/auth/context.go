package auth

import "context"

type sessionKey struct{}

// WithSession stores the resolved session on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session resolved for the request. A request that
// went through no session middleware is anonymous.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}
