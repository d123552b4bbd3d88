package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token lifetimes. Access and temporary tokens are both fixed at fifteen
// minutes; the gate refuses anything that claims to live longer.
const (
	DefaultAccessTokenTTL = 15 * time.Minute
	DefaultTempTokenTTL   = 15 * time.Minute

	// DefaultRefreshTokenTTL applies to the opaque refresh tokens, which are
	// not JWTs but share the same configuration surface.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the claims carried by both temporary login tokens and access
// tokens. Temporary tokens set Temp and leave Role empty.
type Claims struct {
	jwt.RegisteredClaims

	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`

	// Temp marks a token that only proves the password step of a login. It
	// authorizes nothing except verify-mfa and resend-mfa.
	Temp bool `json:"temp,omitempty"`
}

// NewClaims builds claims for subject issued at now and expiring after ttl.
func NewClaims(issuer, subject, email string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC().Truncate(time.Second)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: email,
	}
}

// NewJTI returns a random identifier for the "jti" claim. Two tokens minted
// for the same user in the same second must still differ, otherwise
// blacklisting one would also blacklist the other.
func NewJTI() string {
	return uuid.NewString()
}

// Lifetime returns exp - iat. Tokens without either claim report zero.
func (c *Claims) Lifetime() time.Duration {
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(c.IssuedAt.Time)
}

// ValidateLifetime rejects tokens whose exp - iat exceeds max.
func (c *Claims) ValidateLifetime(max time.Duration) error {
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if c.Lifetime() > max {
		return ErrLifetime
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}
