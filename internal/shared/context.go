package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// AccountFromContext returns the active account id, or ErrUnauthenticated
// when the request carries no signed-in session.
func AccountFromContext(ctx context.Context) (string, error) {
	sess := SessionFromContext(ctx)
	if sess == nil || sess.Account() == "" {
		return "", ErrUnauthenticated
	}
	return sess.Account(), nil
}
