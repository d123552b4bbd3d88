package auth_test

import (
	"net/http"
	"testing"

	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRefreshLogout covers rotation and revocation across a session's
// life.
func TestLoginRefreshLogout(t *testing.T) {
	e := setupAuthContainer(t)
	ctx := t.Context()
	user := registerUser(t, e, "grower", "grower@smartplant.example", "Grower123!")

	session := performLogin(t, e, user.Email, "Grower123!")
	oldRefresh := session.RefreshToken()
	oldAccess := session.AccessToken()

	rotated, err := e.Client.Refresh(ctx, oldRefresh)
	require.NoError(t, err)
	require.NotEqual(t, oldRefresh, rotated.RefreshToken)
	require.Equal(t, 900, rotated.ExpiresIn)

	// The rotated-out token is dead.
	_, err = e.Client.Refresh(ctx, oldRefresh)
	apiErr := requireStatus(t, err, http.StatusUnauthorized)
	require.ErrorIs(t, apiErr, authsdk.ErrInvalidRefreshToken)

	current := e.Client.NewSessionFromTokens(rotated.AccessToken, rotated.RefreshToken, rotated.ExpiresIn)
	require.NoError(t, current.Logout(ctx))

	_, err = e.Client.Refresh(ctx, rotated.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)

	blacklisted := e.Client.NewSessionFromTokens(rotated.AccessToken, "", 900)
	_, err = blacklisted.Me(ctx)
	requireStatus(t, err, http.StatusUnauthorized)

	// The first access token was never logged out and still works.
	still := e.Client.NewSessionFromTokens(oldAccess, "", 900)
	_, err = still.Me(ctx)
	require.NoError(t, err)
}

// TestLogoutAllDevices verifies every refresh token of the user is revoked.
func TestLogoutAllDevices(t *testing.T) {
	e := setupAuthContainer(t)
	ctx := t.Context()
	user := registerUser(t, e, "grower", "grower@smartplant.example", "Grower123!")

	laptop := performLogin(t, e, user.Email, "Grower123!")
	phone := performLogin(t, e, user.Email, "Grower123!")

	n, err := laptop.LogoutAll(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = e.Client.Refresh(ctx, phone.RefreshToken())
	requireStatus(t, err, http.StatusUnauthorized)
}
