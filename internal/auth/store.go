package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// maxSecretBytes is the longest input bcrypt accepts.
const maxSecretBytes = 72

// Store is the in-memory credential registry. Accounts live for the process
// lifetime and are never mutated once inserted.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	hasher   *Hasher
	now      func() time.Time

	// compared against when the identifier is unknown so both paths pay for bcrypt
	dummyHash string
}

// StoreOption configures Store behavior.
type StoreOption func(*Store)

// WithStoreClock overrides the time source used for CreatedAt.
func WithStoreClock(fn func() time.Time) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewStore creates an empty credential store backed by hasher.
func NewStore(hasher *Hasher, opts ...StoreOption) (*Store, error) {
	if hasher == nil {
		return nil, fmt.Errorf("hasher is required: %w", ErrInvalidInput)
	}
	dummy, err := hasher.Hash(context.Background(), "gatehouse-unknown-identifier")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	s := &Store{
		accounts:  make(map[string]*Account),
		hasher:    hasher,
		now:       time.Now,
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register hashes secret and inserts a new account for identifier.
func (s *Store) Register(ctx context.Context, identifier, secret string) (Account, error) {
	if identifier == "" || secret == "" {
		return Account{}, fmt.Errorf("identifier and secret are required: %w", ErrInvalidInput)
	}
	if s.exists(identifier) {
		return Account{}, ErrAlreadyExists
	}

	hash, err := s.hasher.Hash(ctx, secret)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another registration may have won while we were hashing
	if _, ok := s.accounts[identifier]; ok {
		return Account{}, ErrAlreadyExists
	}
	acc := &Account{
		Identifier: identifier,
		SecretHash: hash,
		CreatedAt:  s.now().UTC(),
	}
	s.accounts[identifier] = acc
	return *acc, nil
}

// Verify checks secret against the account stored for identifier.
func (s *Store) Verify(ctx context.Context, identifier, secret string) (Account, error) {
	s.mu.RLock()
	acc, ok := s.accounts[identifier]
	var out Account
	if ok {
		out = *acc
	}
	s.mu.RUnlock()

	if !ok {
		_ = s.hasher.Compare(ctx, s.dummyHash, secret)
		return Account{}, ErrNotFound
	}
	if len(secret) > maxSecretBytes {
		_ = s.hasher.Compare(ctx, s.dummyHash, secret[:maxSecretBytes])
		return Account{}, ErrMismatch
	}
	if err := s.hasher.Compare(ctx, out.SecretHash, secret); err != nil {
		return Account{}, err
	}
	return out, nil
}

// Len returns the number of registered accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) exists(identifier string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[identifier]
	return ok
}
