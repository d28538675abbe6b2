package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Account is a registered identifier with its bcrypt secret hash.
type Account struct {
	Identifier string    `json:"identifier"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Claims represents JWT claims carried by session tokens.
type Claims struct {
	Identifier string `json:"identifier"`
	jwt.RegisteredClaims
}

// Token is a signed session token together with its validity window.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
