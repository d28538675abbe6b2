package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/httpapi"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hasher, err := auth.NewHasher(auth.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	store, err := auth.NewStore(hasher)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	issuer, err := auth.NewIssuer([]byte("client-test-secret"))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	srv := httptest.NewServer(httpapi.New(store, issuer).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Protected(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	if err := c.Signup(ctx, "alice@x.com", "pw1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	err := c.Signup(ctx, "alice@x.com", "pw1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict || apiErr.RequestID == "" {
		t.Fatalf("expected APIError with request id, got %#v", err)
	}

	if _, err := c.Login(ctx, "alice@x.com", "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if c.Session().Authenticated() {
		t.Fatal("failed login must not authenticate the session")
	}

	token, err := c.Login(ctx, "alice@x.com", "pw1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got, _ := c.Session().Token(); got != token {
		t.Fatalf("session token mismatch")
	}

	grant, err := c.Protected(ctx)
	if err != nil {
		t.Fatalf("Protected: %v", err)
	}
	if grant.Message != "Access granted" || grant.Identifier() != "alice@x.com" {
		t.Fatalf("unexpected grant: %+v", grant)
	}

	c.Logout()
	if _, err := c.Protected(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestClientForbiddenClearsSession(t *testing.T) {
	srv := newTestServer(t)
	sess := &Session{}
	sess.SetToken("not-a-jwt")
	c := New(srv.URL, WithHTTPClient(srv.Client()), WithSession(sess))

	_, err := c.Protected(context.Background())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("expected session to be cleared after 403")
	}
}

func TestClientBadRequest(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, WithHTTPClient(srv.Client()))

	if err := c.Signup(context.Background(), "", ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestAPIErrorWithoutSentinel(t *testing.T) {
	err := &APIError{Status: http.StatusInternalServerError, Message: "Server error"}
	for _, target := range []error{ErrBadRequest, ErrConflict, ErrUnauthorized, ErrForbidden} {
		if errors.Is(err, target) {
			t.Fatalf("500 must not match %v", target)
		}
	}
	if err.Error() != "gatehouse: 500 Server error" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
