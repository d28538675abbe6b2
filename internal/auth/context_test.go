package auth

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentifierFromContext(ctx); ok {
		t.Fatal("expected no identifier on empty context")
	}

	claims := &Claims{Identifier: "alice@x.com"}
	ctx = ContextWithClaims(ctx, claims)
	claims.Identifier = "mutated"

	id, ok := IdentifierFromContext(ctx)
	if !ok || id != "alice@x.com" {
		t.Fatalf("unexpected identifier: %q ok=%v", id, ok)
	}

	ctx = ContextWithToken(ctx, "tok")
	if tok, ok := TokenFromContext(ctx); !ok || tok != "tok" {
		t.Fatalf("unexpected token: %q ok=%v", tok, ok)
	}
	if got := ContextWithToken(context.Background(), ""); got != context.Background() {
		t.Fatal("empty token should not wrap context")
	}
}
