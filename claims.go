package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	PrincipalID() string
	Kind() TokenKind
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The session
// stage travels in the token itself as the kind claim; there is no
// server-side session record.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string    `json:"uid,omitempty"`
	TokenKind TokenKind `json:"kind,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim, the owning handle
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// PrincipalID returns the principal identifier
func (c *JWTClaims) PrincipalID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Kind returns the token kind claim
func (c *JWTClaims) Kind() TokenKind {
	return c.TokenKind
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
