package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinCost is the lowest bcrypt work factor the hasher accepts.
const MinCost = bcrypt.DefaultCost

// Hasher hashes and compares secrets with bcrypt. At most one hash per CPU
// runs at a time; the rest wait on the semaphore or give up with their ctx.
type Hasher struct {
	cost  int
	slots int64
	sem   *semaphore.Weighted
}

// NewHasher returns a hasher using the given bcrypt cost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < MinCost {
		return nil, fmt.Errorf("bcrypt cost %d is below minimum %d", cost, MinCost)
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d exceeds maximum %d", cost, bcrypt.MaxCost)
	}
	slots := int64(runtime.GOMAXPROCS(0))
	return &Hasher{
		cost:  cost,
		slots: slots,
		sem:   semaphore.NewWeighted(slots),
	}, nil
}

// Cost reports the configured work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash hashes plaintext secret using bcrypt.
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("secret is empty: %w", ErrInvalidInput)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("secret longer than 72 bytes: %w", ErrInvalidInput)
		}
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// Compare checks plaintext secret against a stored hash. A mismatch yields
// ErrMismatch; any other failure is returned wrapped.
func (h *Hasher) Compare(ctx context.Context, hash, secret string) error {
	if hash == "" {
		return errors.New("secret hash is empty")
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("compare secret: %w", err)
	}
}
