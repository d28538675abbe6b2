package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gatehouse.org/internal/client"
	"gatehouse.org/internal/ids"
)

func main() {
	base := os.Getenv("GATEHOUSE_BASE_URL")
	if base == "" {
		base = "http://localhost:5000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(base)
	identifier := fmt.Sprintf("smoke-%s@gatehouse.local", ids.New())
	secret := "smoke-" + ids.New()

	if err := c.Signup(ctx, identifier, secret); err != nil {
		log.Fatalf("signup: %v", err)
	}
	if err := c.Signup(ctx, identifier, secret); !errors.Is(err, client.ErrConflict) {
		log.Fatalf("duplicate signup: expected conflict, got %v", err)
	}
	if _, err := c.Login(ctx, identifier, secret+"x"); !errors.Is(err, client.ErrUnauthorized) {
		log.Fatalf("bad login: expected unauthorized, got %v", err)
	}
	if _, err := c.Login(ctx, identifier, secret); err != nil {
		log.Fatalf("login: %v", err)
	}

	grant, err := c.Protected(ctx)
	if err != nil {
		log.Fatalf("protected: %v", err)
	}
	if grant.Identifier() != identifier {
		log.Fatalf("unexpected identifier in claims: %q", grant.Identifier())
	}

	token, _ := c.Session().Token()
	c.Session().SetToken(token + "x")
	if _, err := c.Protected(ctx); !errors.Is(err, client.ErrForbidden) {
		log.Fatalf("tampered token: expected forbidden, got %v", err)
	}
	if c.Session().Authenticated() {
		log.Fatalf("tampered token: session should have been cleared")
	}

	if _, err := c.Login(ctx, identifier, secret); err != nil {
		log.Fatalf("second login: %v", err)
	}
	c.Logout()
	if _, err := c.Protected(ctx); !errors.Is(err, client.ErrNotAuthenticated) {
		log.Fatalf("after logout: expected ErrNotAuthenticated, got %v", err)
	}

	fmt.Printf("✅ gatehouse smoke test passed: identifier=%s\n", identifier)
}
