package authsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeAuth is a minimal stand-in for the auth service.
type fakeAuth struct {
	refreshes atomic.Int32
	expiresIn int
}

func (f *fakeAuth) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "right" {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, authsdk.LoginResponse{Success: true, RequiresMFA: true, TempToken: "temp", Email: "gr***@example.com"})
	})
	mux.HandleFunc("POST /v1/auth/verify-mfa", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.VerifyMFARequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Code != "123456" {
			authsdk.ErrInvalidCode.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, authsdk.AuthResponse{
			Success: true, AccessToken: "access-0", RefreshToken: "refresh-0", ExpiresIn: f.expiresIn,
			User: authsdk.User{ID: "u1", Role: "public"},
		})
	})
	mux.HandleFunc("POST /v1/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		writeJSON(w, http.StatusOK, authsdk.AuthResponse{
			Success: true, AccessToken: "access-fresh", RefreshToken: "refresh-fresh", ExpiresIn: 900,
			User: authsdk.User{ID: "u1", Role: "public"},
		})
	})
	mux.HandleFunc("GET /v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, authsdk.MeResponse{Success: true, User: authsdk.User{
			ID: "u1", Username: r.Header.Get("Authorization"), Role: "public",
		}})
	})
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.LogoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.RefreshToken)
		writeJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: "Logged out successfully"})
	})
	mux.HandleFunc("POST /v1/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
			Code: authsdk.ErrorCodeValidation, Message: "validation failed for some fields",
		})
	})
	mux.HandleFunc("POST /v1/service/introspect", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "svc-key", r.Header.Get("X-API-Key"))
		writeJSON(w, http.StatusOK, authsdk.IntrospectResponse{Active: false, Error: "token has expired, please login again"})
	})
	return mux
}

func newFake(t *testing.T, expiresIn int) (*fakeAuth, *authsdk.SDKClient) {
	t.Helper()
	f := &fakeAuth{expiresIn: expiresIn}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, authsdk.NewSDKClient(srv.URL + "/")
}

func TestLoginAndVerify(t *testing.T) {
	ctx := context.Background()
	_, c := newFake(t, 900)

	_, err := c.Login(ctx, "grower@example.com", "wrong")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	challenge, err := c.Login(ctx, "grower@example.com", "right")
	require.NoError(t, err)
	require.True(t, challenge.RequiresMFA)

	_, err = c.AuthenticateWithCode(ctx, challenge.TempToken, "000000")
	require.ErrorIs(t, err, authsdk.ErrInvalidCode)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	sess, err := c.AuthenticateWithCode(ctx, challenge.TempToken, "123456")
	require.NoError(t, err)
	require.Equal(t, "access-0", sess.AccessToken())
	require.Equal(t, "u1", sess.User().ID)

	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer access-0", me.Username)
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	ctx := context.Background()
	// A lifetime inside the refresh buffer makes the token stale at once.
	f, c := newFake(t, 10)

	sess, err := c.AuthenticateWithCode(ctx, "temp", "123456")
	require.NoError(t, err)

	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer access-fresh", me.Username)
	require.Equal(t, "refresh-fresh", sess.RefreshToken())
	require.EqualValues(t, 1, f.refreshes.Load())

	_, err = sess.Me(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, f.refreshes.Load())
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	_, c := newFake(t, 900)

	sess := c.NewSessionFromTokens("access-0", "refresh-0", 900)
	require.NoError(t, sess.Logout(ctx))
	require.Empty(t, sess.AccessToken())
	require.Empty(t, sess.RefreshToken())

	_, err := sess.Me(ctx)
	require.Error(t, err)
}

func TestValidationErrorsBecomeAPIErrors(t *testing.T) {
	_, c := newFake(t, 900)

	_, err := c.Bootstrap(context.Background(), "token", authsdk.BootstrapRequest{})
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeValidation, apiErr.Code)
}

func TestIntrospect(t *testing.T) {
	_, c := newFake(t, 900)

	res, err := c.Introspect(context.Background(), "svc-key", "some-token")
	require.NoError(t, err)
	require.False(t, res.Active)
	require.Contains(t, res.Error, "expired")
}

func TestUnknownErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := authsdk.NewSDKClient(srv.URL).GetLiveness(context.Background())
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeServerError, apiErr.Code)
}

func TestAPIErrorIs(t *testing.T) {
	custom := authsdk.ErrRateLimited.WithDescription("Too many attempts. Please wait 15 minutes.")
	require.ErrorIs(t, custom, authsdk.ErrRateLimited)
	require.NotErrorIs(t, custom, authsdk.ErrInvalidCode)
}
