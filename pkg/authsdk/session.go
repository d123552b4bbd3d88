package authsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// refreshBuffer makes a session refresh a little before the access token
// actually expires.
const refreshBuffer = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         User
}

func newSession(client *SDKClient, resp *AuthResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - refreshBuffer),
		user:         resp.User,
	}
}

// getValidToken returns a valid access token, refreshing it when expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", errors.New("access token expired and no refresh token available")
	}

	resp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", err
	}
	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - refreshBuffer)
	s.user = resp.User
	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the account the session was last issued for.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Me returns the caller as the service currently sees it.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the session's refresh token and access token. The session
// is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	req := LogoutRequest{RefreshToken: s.refreshToken}
	s.mu.RUnlock()

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/auth/logout", req)
	if err != nil {
		return err
	}
	var out MessageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return err
	}
	s.clear()
	return nil
}

// LogoutAll revokes every session of the user, this one included.
func (s *Session) LogoutAll(ctx context.Context) (int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/auth/logout-all", nil)
	if err != nil {
		return 0, err
	}
	var out LogoutAllResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	s.clear()
	return out.RevokedSessions, nil
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
}

// ListSessions lists the active sessions of userID. Only the user and admins
// may do this.
func (s *Session) ListSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID)+"/sessions", nil)
	if err != nil {
		return nil, err
	}
	var out SessionsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// RevokeSessions revokes all sessions of userID. Requires the admin role.
func (s *Session) RevokeSessions(ctx context.Context, userID string) (int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(userID)+"/sessions", nil)
	if err != nil {
		return 0, err
	}
	var out LogoutAllResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.RevokedSessions, nil
}

// SetRole changes the role of userID. Requires the admin role.
func (s *Session) SetRole(ctx context.Context, userID, role string) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/users/"+url.PathEscape(userID)+"/role", SetRoleRequest{Role: role})
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}
