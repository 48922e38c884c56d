package tenancy

import (
	"context"

	"github.com/wolfman30/clinicdesk/internal/access"
)

type ctxKey string

const (
	tokenKey    ctxKey = "clinicdesk.token"
	identityKey ctxKey = "clinicdesk.identity"
	sessionKey  ctxKey = "clinicdesk.session"
)

// WithToken stores the caller's backend bearer token in context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the bearer token, preferring the session's copy.
func TokenFromContext(ctx context.Context) (string, bool) {
	if sess, ok := SessionFromContext(ctx); ok && sess.Token != "" {
		return sess.Token, true
	}
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// WithIdentity stores the verified token identity in context.
func WithIdentity(ctx context.Context, id access.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the verified identity if present.
func IdentityFromContext(ctx context.Context) (access.Identity, bool) {
	id, ok := ctx.Value(identityKey).(access.Identity)
	return id, ok
}

// WithSession stores the live session in context.
func WithSession(ctx context.Context, sess *access.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext extracts the session if present.
func SessionFromContext(ctx context.Context) (*access.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*access.Session)
	return sess, ok && sess != nil
}

// RequireSession returns the session or access.ErrSessionNotFound.
func RequireSession(ctx context.Context) (*access.Session, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil, access.ErrSessionNotFound
	}
	return sess, nil
}
