package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	hasher, err := NewHasher(MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	store, err := NewStore(hasher)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestRegisterAndVerify(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Register(ctx, "alice@x.com", "pw123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if acc.Identifier != "alice@x.com" {
		t.Fatalf("unexpected identifier: %s", acc.Identifier)
	}
	if acc.SecretHash == "" || acc.SecretHash == "pw123" {
		t.Fatalf("secret was not hashed: %q", acc.SecretHash)
	}
	if !strings.HasPrefix(acc.SecretHash, "$2a$10$") {
		t.Fatalf("expected bcrypt cost 10 hash, got %q", acc.SecretHash)
	}

	got, err := s.Verify(ctx, "alice@x.com", "pw123")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Identifier != "alice@x.com" {
		t.Fatalf("unexpected account: %+v", got)
	}

	if _, err := s.Verify(ctx, "alice@x.com", "wrong"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if _, err := s.Verify(ctx, "bob@x.com", "pw123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "alice@x.com", "pw123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := s.Register(ctx, "alice@x.com", "other"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 account, got %d", s.Len())
	}
	// original secret still wins
	if _, err := s.Verify(ctx, "alice@x.com", "pw123"); err != nil {
		t.Fatalf("Verify after duplicate: %v", err)
	}
}

func TestIdentifiersAreCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "Alice@x.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register(ctx, "alice@x.com", "pw"); err != nil {
		t.Fatalf("Register lower-case: %v", err)
	}
	if _, err := s.Verify(ctx, "ALICE@X.COM", "pw"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct{ id, secret string }{
		{"", "pw"},
		{"alice@x.com", ""},
		{"", ""},
		{"alice@x.com", strings.Repeat("p", 73)},
	}
	for _, tc := range cases {
		if _, err := s.Register(ctx, tc.id, tc.secret); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Register(%q, len=%d): expected ErrInvalidInput, got %v", tc.id, len(tc.secret), err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestVerifyOverlongSecretIsMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	secret := strings.Repeat("p", 72)
	if _, err := s.Register(ctx, "alice@x.com", secret); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Verify(ctx, "alice@x.com", secret+"tail"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestConcurrentRegisterSameIdentifier(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Register(ctx, "race@x.com", "pw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d/%d", n-1, successes, conflicts)
	}
}

func TestStoreClock(t *testing.T) {
	hasher, err := NewHasher(MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := NewStore(hasher, WithStoreClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	acc, err := s.Register(context.Background(), "alice@x.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !acc.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected CreatedAt: %v", acc.CreatedAt)
	}
}

func TestNewStoreRequiresHasher(t *testing.T) {
	if _, err := NewStore(nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
