package tenancy

import (
	"context"
	"testing"

	"github.com/wolfman30/clinicdesk/internal/access"
)

func TestTokenFromContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := TokenFromContext(ctx); ok {
		t.Fatalf("expected missing token to return false")
	}

	ctx = WithToken(ctx, "raw-token")
	got, ok := TokenFromContext(ctx)
	if !ok || got != "raw-token" {
		t.Fatalf("expected raw-token, got %q", got)
	}

	ctx = WithSession(ctx, &access.Session{Token: "session-token"})
	got, _ = TokenFromContext(ctx)
	if got != "session-token" {
		t.Fatalf("expected session token to win, got %q", got)
	}

	if _, ok := TokenFromContext(WithToken(context.Background(), "")); ok {
		t.Fatalf("expected empty token to return false")
	}
}

func TestSessionAndIdentityFromContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFromContext(ctx); ok {
		t.Fatalf("expected missing session to return false")
	}
	if _, ok := SessionFromContext(WithSession(ctx, nil)); ok {
		t.Fatalf("expected nil session to return false")
	}

	ctx = WithIdentity(ctx, access.Identity{UserID: 9})
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID != 9 {
		t.Fatalf("expected identity 9, got %+v", id)
	}
}
