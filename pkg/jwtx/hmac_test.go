package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smartplant/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newPair(t *testing.T) (*jwtx.HMACSigner, *jwtx.HMACVerifier) {
	t.Helper()
	s, err := jwtx.NewHMACSigner(testSecret)
	require.NoError(t, err)
	v, err := jwtx.NewHMACVerifier(testSecret, "smartplant-auth")
	require.NoError(t, err)
	return s, v
}

func TestWeakSecretRejected(t *testing.T) {
	_, err := jwtx.NewHMACSigner([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewHMACVerifier([]byte("short"), "")
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestSignAndVerify(t *testing.T) {
	s, v := newPair(t)
	require.Equal(t, "HS256", s.Alg())
	require.NoError(t, s.Validate())

	c := jwtx.NewClaims("smartplant-auth", "user-1", "ana@example.com", jwtx.DefaultAccessTokenTTL, time.Now())
	c.Role = "expert"
	c.Username = "ana"

	raw, err := s.Sign(c)
	require.NoError(t, err)

	got, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "ana@example.com", got.Email)
	require.Equal(t, "expert", got.Role)
	require.False(t, got.Temp)
	require.Equal(t, jwtx.DefaultAccessTokenTTL, got.Lifetime())
}

func TestVerifyTempFlagSurvives(t *testing.T) {
	s, v := newPair(t)
	c := jwtx.NewClaims("smartplant-auth", "user-1", "ana@example.com", jwtx.DefaultTempTokenTTL, time.Now())
	c.Temp = true

	raw, err := s.Sign(c)
	require.NoError(t, err)

	got, err := v.Verify(raw)
	require.NoError(t, err)
	require.True(t, got.Temp)
}

func TestVerifyExpired(t *testing.T) {
	s, v := newPair(t)
	c := jwtx.NewClaims("smartplant-auth", "user-1", "e", jwtx.DefaultAccessTokenTTL, time.Now().Add(-time.Hour))

	raw, err := s.Sign(c)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyWithClock(t *testing.T) {
	s, v := newPair(t)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewClaims("smartplant-auth", "user-1", "e", jwtx.DefaultAccessTokenTTL, issued)

	raw, err := s.Sign(c)
	require.NoError(t, err)

	_, err = v.WithClock(func() time.Time { return issued.Add(14 * time.Minute) }).Verify(raw)
	require.NoError(t, err)

	_, err = v.WithClock(func() time.Time { return issued.Add(16 * time.Minute) }).Verify(raw)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejects(t *testing.T) {
	s, v := newPair(t)
	now := time.Now()

	t.Run("empty", func(t *testing.T) {
		_, err := v.Verify("")
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHMACSigner([]byte(strings.Repeat("z", 32)))
		require.NoError(t, err)
		raw, err := other.Sign(jwtx.NewClaims("smartplant-auth", "u", "e", time.Minute, now))
		require.NoError(t, err)

		_, err = v.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		raw, err := s.Sign(jwtx.NewClaims("smartplant-auth", "u", "e", time.Minute, now))
		require.NoError(t, err)
		parts := strings.Split(raw, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "AA"

		_, err = v.Verify(strings.Join(parts, "."))
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		raw, err := s.Sign(jwtx.NewClaims("someone-else", "u", "e", time.Minute, now))
		require.NoError(t, err)

		_, err = v.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("missing exp", func(t *testing.T) {
		c := jwtx.NewClaims("smartplant-auth", "u", "e", time.Minute, now)
		c.ExpiresAt = nil
		raw, err := s.Sign(c)
		require.NoError(t, err)

		_, err = v.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("missing iat", func(t *testing.T) {
		c := jwtx.NewClaims("smartplant-auth", "u", "e", time.Minute, now)
		c.IssuedAt = nil
		raw, err := s.Sign(c)
		require.NoError(t, err)

		_, err = v.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		c := jwtx.NewClaims("smartplant-auth", "u", "e", time.Minute, now)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("HS512 with same secret", func(t *testing.T) {
		c := jwtx.NewClaims("smartplant-auth", "u", "e", time.Minute, now)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(testSecret)
		require.NoError(t, err)

		_, err = v.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})
}
