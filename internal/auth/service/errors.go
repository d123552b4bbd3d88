package service

import "errors"

// Orchestrator failures. Handlers map these to status codes; everything else
// is a 500.
var (
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrRateLimited         = errors.New("rate_limited")
	ErrDeliveryFailed      = errors.New("delivery_failed")
	ErrInvalidCode         = errors.New("invalid_code")
	ErrTooManyAttempts     = errors.New("too_many_attempts")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidRole         = errors.New("invalid_role")
)

// Gate failures. Their text is sent to clients as the bearer error
// description.
var (
	ErrUnauthenticated = errors.New("authentication required, no token provided")
	ErrTokenRevoked    = errors.New("token has been revoked, please login again")
	ErrTokenExpired    = errors.New("token has expired, please login again")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenTampered   = errors.New("token lifetime exceeds maximum allowed duration")
	ErrTemporaryToken  = errors.New("temporary login token cannot access this resource")
	ErrUserNotFound    = errors.New("user no longer exists")
)
