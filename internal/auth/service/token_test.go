package service

import (
	"regexp"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	h := newHarness(t)
	user := domain.User{ID: "01J0USER", Email: "ana@example.com", Username: "ana", Role: domain.RoleExpert}

	t.Run("access tokens live exactly fifteen minutes", func(t *testing.T) {
		raw, err := h.tokens.MintAccess(user)
		require.NoError(t, err)

		claims, err := h.tokens.Verifier.Verify(raw)
		require.NoError(t, err)
		require.Equal(t, 900*time.Second, claims.Lifetime())
		require.Equal(t, "expert", claims.Role)
		require.False(t, claims.Temp)

		parsed, err := h.tokens.ParseAccess(raw)
		require.NoError(t, err)
		require.Equal(t, user.ID, parsed.Subject)
	})

	t.Run("temporary tokens only parse as temporary", func(t *testing.T) {
		temp, err := h.tokens.MintTemporary(user)
		require.NoError(t, err)

		claims, err := h.tokens.ParseTemporary(temp)
		require.NoError(t, err)
		require.True(t, claims.Temp)
		require.Empty(t, claims.Role)

		_, err = h.tokens.ParseAccess(temp)
		require.ErrorIs(t, err, ErrTemporaryToken)

		access, err := h.tokens.MintAccess(user)
		require.NoError(t, err)
		_, err = h.tokens.ParseTemporary(access)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("overlong lifetime is rejected", func(t *testing.T) {
		claims := jwtx.NewClaims(testIssuer, user.ID, user.Email, time.Hour, h.clock.Now())
		raw, err := h.tokens.Signer.Sign(claims)
		require.NoError(t, err)

		_, err = h.tokens.ParseAccess(raw)
		require.ErrorIs(t, err, ErrTokenTampered)
	})

	t.Run("mint refuses a lifetime other than the configured one", func(t *testing.T) {
		odd := *h.tokens
		odd.AccessTTL = 1500 * time.Millisecond
		_, err := odd.MintAccess(user)
		require.Error(t, err)
	})

	t.Run("garbage is invalid", func(t *testing.T) {
		_, err := h.tokens.ParseAccess("not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidToken)
		_, err = h.tokens.ParseTemporary("")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expiry", func(t *testing.T) {
		access, err := h.tokens.MintAccess(user)
		require.NoError(t, err)
		temp, err := h.tokens.MintTemporary(user)
		require.NoError(t, err)

		h.clock.Advance(16 * time.Minute)

		_, err = h.tokens.ParseAccess(access)
		require.ErrorIs(t, err, ErrTokenExpired)
		_, err = h.tokens.ParseTemporary(temp)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	six := regexp.MustCompile(`^[0-9]{6}$`)
	seen := map[string]struct{}{}
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Regexp(t, six, code)
		seen[code] = struct{}{}
	}
	require.Greater(t, len(seen), 40)
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"alice@example.com": "al***@example.com",
		"bob@example.com":   "bo***@example.com",
		"jo@example.com":    "j***@example.com",
		"x@example.com":     "x***@example.com",
		"bñ@example.org":    "b***@example.org",
		"ñandú@example.org": "ña***@example.org",
		"not-an-email":      "not-an-email",
	}
	for in, want := range cases {
		got := MaskEmail(in)
		require.Equal(t, want, got, in)
		require.True(t, utf8.ValidString(got), in)
	}
}
