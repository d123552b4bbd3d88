package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smartplant/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "smartplant-auth"},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("smartplant-auth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
	})
}

func TestNewClaimsLifetime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 500, time.UTC)
	c := jwtx.NewClaims("iss", "user-1", "a@b.c", jwtx.DefaultAccessTokenTTL, now)

	require.Equal(t, 900*time.Second, c.Lifetime())
	require.Equal(t, int64(900), c.ExpiresAt.Unix()-c.IssuedAt.Unix())
	require.NotEmpty(t, c.ID)
	require.NoError(t, c.ValidateLifetime(jwtx.DefaultAccessTokenTTL))
}

func TestValidateLifetime(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("too long", func(t *testing.T) {
		c := jwtx.NewClaims("iss", "u", "e", time.Hour, now)
		require.ErrorIs(t, c.ValidateLifetime(15*time.Minute), jwtx.ErrLifetime)
	})

	t.Run("shorter is fine", func(t *testing.T) {
		c := jwtx.NewClaims("iss", "u", "e", time.Minute, now)
		require.NoError(t, c.ValidateLifetime(15*time.Minute))
	})

	t.Run("missing iat", func(t *testing.T) {
		c := jwtx.NewClaims("iss", "u", "e", time.Minute, now)
		c.IssuedAt = nil
		require.Equal(t, time.Duration(0), c.Lifetime())
		require.ErrorIs(t, c.ValidateLifetime(15*time.Minute), jwtx.ErrInvalidToken)
	})
}

func TestNewJTIUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := jwtx.NewJTI()
		require.False(t, seen[id])
		seen[id] = true
	}
}
