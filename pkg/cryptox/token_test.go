package cryptox

import (
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// Tokens end up in cookies and JSON bodies, so they must stay in the
// unpadded URL alphabet.
var cookieSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		encoded int
	}{
		{"refresh token", TokenSize512, 86},
		{"timing burn password", TokenSize128, 22},
		{"odd size", 24, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.encoded)
			require.Regexp(t, cookieSafe, token)

			raw, err := base64.RawURLEncoding.DecodeString(token)
			require.NoError(t, err)
			require.Len(t, raw, tt.size)
		})
	}

	t.Run("non-positive sizes are refused", func(t *testing.T) {
		for _, size := range []int{0, -16} {
			token, err := GenerateToken(size)
			require.Error(t, err, "size %d", size)
			require.Empty(t, token)
		}
		require.Panics(t, func() { MustGenerateToken(0) })
	})
}

func TestRefreshTokensDoNotRepeat(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for range 500 {
		token := MustGenerateToken(TokenSize512)
		_, dup := seen[token]
		require.False(t, dup, "refresh token issued twice")
		seen[token] = struct{}{}
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Run("sha-256 in unpadded base64url", func(t *testing.T) {
		require.Equal(t, "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0", FingerprintToken("abc"))
	})

	t.Run("neighbouring codes do not collide", func(t *testing.T) {
		a, b := FingerprintToken("123456"), FingerprintToken("123457")
		require.NotEqual(t, a, b)
		require.Equal(t, a, FingerprintToken("123456"))
		require.NotContains(t, a, "123456")
	})

	t.Run("input is not normalised", func(t *testing.T) {
		// Callers trim codes before fingerprinting; the fingerprint itself is exact.
		require.NotEqual(t, FingerprintToken("123456"), FingerprintToken(" 123456"))
	})

	t.Run("refresh token fingerprint fits the column", func(t *testing.T) {
		fp := FingerprintToken(MustGenerateToken(TokenSize512))
		require.Len(t, fp, 43)
		require.Regexp(t, cookieSafe, fp)
	})
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, ConstantTimeEqual("training-key", "training-key"))
	require.False(t, ConstantTimeEqual("training-key", "training-kez"))
	require.False(t, ConstantTimeEqual("training-key", "training-key-longer"))
	require.False(t, ConstantTimeEqual("", "training-key"))
}
