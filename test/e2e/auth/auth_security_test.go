package auth_test

import (
	"net/http"
	"testing"

	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies wrong passwords and unknown emails look
// the same to the caller.
func TestInvalidCredentials(t *testing.T) {
	e := setupAuthContainer(t)
	ctx := t.Context()
	registerUser(t, e, "grower", "grower@smartplant.example", "Grower123!")

	_, wrongPw := e.Client.Login(ctx, "grower@smartplant.example", "nope-nope")
	_, unknown := e.Client.Login(ctx, "ghost@smartplant.example", "Grower123!")

	a := requireStatus(t, wrongPw, http.StatusUnauthorized)
	b := requireStatus(t, unknown, http.StatusUnauthorized)
	require.Equal(t, a.Description, b.Description)
	require.ErrorIs(t, a, authsdk.ErrInvalidCredentials)
}

// TestInvalidAccessToken verifies garbage tokens are refused.
func TestInvalidAccessToken(t *testing.T) {
	e := setupAuthContainer(t)

	session := e.Client.NewSessionFromTokens("not.a.jwt", "", 900)
	_, err := session.Me(t.Context())
	requireStatus(t, err, http.StatusUnauthorized)
}

// TestRoleEnforcement verifies admin-only endpoints and that a role change
// applies to tokens already issued.
func TestRoleEnforcement(t *testing.T) {
	e := setupAuthContainer(t)
	ctx := t.Context()
	bootstrapService(t, e)
	user := registerUser(t, e, "grower", "grower@smartplant.example", "Grower123!")

	admin := performLogin(t, e, adminEmail, adminPassword)
	grower := performLogin(t, e, user.Email, "Grower123!")

	_, err := grower.SetRole(ctx, user.ID, "admin")
	requireStatus(t, err, http.StatusForbidden)

	_, err = grower.ListSessions(ctx, admin.User().ID)
	requireStatus(t, err, http.StatusForbidden)

	own, err := grower.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)

	updated, err := admin.SetRole(ctx, user.ID, "expert")
	require.NoError(t, err)
	require.Equal(t, "expert", updated.Role)

	me, err := grower.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "expert", me.Role)

	n, err := admin.RevokeSessions(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
