package authsdk

import (
	"context"
	"net/http"
)

// Register creates a public account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/register", req, nil)
	if err != nil {
		return nil, err
	}
	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks the password and triggers the verification email. The
// returned TempToken must be passed to VerifyMFA with the emailed code.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", LoginRequest{Email: email, Password: password}, nil)
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) VerifyMFA(ctx context.Context, tempToken, code string) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/verify-mfa",
		VerifyMFARequest{TempToken: tempToken, Code: code}, nil)
	if err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendMFA sends a fresh code. Earlier codes stop working.
func (c *SDKClient) ResendMFA(ctx context.Context, tempToken string) (*MessageResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/resend-mfa", ResendMFARequest{TempToken: tempToken}, nil)
	if err != nil {
		return nil, err
	}
	var out MessageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/refresh-token", RefreshRequest{RefreshToken: refreshToken}, nil)
	if err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Introspect asks the service whether accessToken would pass the gate. It is
// authenticated with the training service API key.
func (c *SDKClient) Introspect(ctx context.Context, apiKey, accessToken string) (*IntrospectResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/service/introspect",
		IntrospectRequest{Token: accessToken}, map[string]string{"X-API-Key": apiKey})
	if err != nil {
		return nil, err
	}
	var out IntrospectResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
