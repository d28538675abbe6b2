package auth

import "errors"

var (
	ErrInvalidInput  = errors.New("auth: invalid input")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrNotFound      = errors.New("auth: not found")
	ErrMismatch      = errors.New("auth: credentials mismatch")
)

// ErrInvalidToken indicates the token failed signature or structural validation.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired indicates a correctly signed token whose expiry has passed.
var ErrTokenExpired = errors.New("token expired")
