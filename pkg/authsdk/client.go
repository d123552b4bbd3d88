package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the SmartPlant authentication service.
// It provides the unauthenticated operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithCode completes a login started with Login and returns a
// session for the signed-in user.
func (c *SDKClient) AuthenticateWithCode(ctx context.Context, tempToken, code string) (*Session, error) {
	resp, err := c.VerifyMFA(ctx, tempToken, code)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// AuthenticateWithRefreshToken creates an authenticated session from an existing refresh token.
// The refresh token is rotated: the one passed in is no longer usable afterwards.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	resp, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// The session still refreshes itself when the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    time.Now().Add(time.Duration(expiresIn)*time.Second - refreshBuffer),
	}
}
