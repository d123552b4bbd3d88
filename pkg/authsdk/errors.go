package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/smartplant/auth/pkg/httpx"
)

// Error codes sent in the "error" field of every error response.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeRateLimited         = "rate_limited"
	ErrorCodeDeliveryFailed      = "delivery_failed"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeInvalidCode         = "invalid_code"
	ErrorCodeUserNotFound        = "user_not_found"
	ErrorCodeInvalidGrant        = "invalid_grant"
	ErrorCodeEmailTaken          = "email_taken"
	ErrorCodeInvalidRole         = "invalid_role"
	ErrorCodeNotFound            = "not_found"
	ErrorCodeUnauthorized        = "unauthorized"
	ErrorCodeAlreadyBootstrapped = "already_bootstrapped"
	ErrorCodeServerError         = "server_error"
	ErrorCodeValidation          = "validation_error"
	ErrorCodeTooManyAttempts     = "too_many_attempts"
)

// APIError is the error body of the auth API. The server writes it with
// WriteError and the client returns it from every failed call.
type APIError struct {
	StatusCode int `json:"-"`

	// Code is machine readable, e.g. "invalid_code".
	Code string `json:"error"`

	// Description is meant for people and may change between releases.
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on status and code so a decoded response compares equal to the
// predefined value it was written from.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode && t.Code == e.Code
}

// WriteError writes e as the JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// WithDescription returns a copy of e with another description.
func (e *APIError) WithDescription(desc string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Code: e.Code, Description: desc}
}

func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "Invalid credentials",
	}

	// ErrRateLimited is returned once five codes were issued to the account
	// within fifteen minutes.
	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "Too many login attempts. Please try again in 15 minutes.",
	}

	// ErrTooManyAttempts is returned when a code was guessed wrong too often
	// and has been withdrawn. A new code has to be requested.
	ErrTooManyAttempts = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyAttempts,
		Description: "Too many incorrect codes. Please request a new code.",
	}

	ErrDeliveryFailed = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeDeliveryFailed,
		Description: "Failed to send verification email. Please try again.",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "Token expired or invalid",
	}

	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCode,
		Description: "Invalid or expired verification code",
	}

	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUserNotFound,
		Description: "User not found",
	}

	ErrInvalidRefreshToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidGrant,
		Description: "Invalid or expired refresh token",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeEmailTaken,
		Description: "Email already registered",
	}

	ErrInvalidRole = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRole,
		Description: "Role must be one of public, expert, admin",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "Resource not found",
	}

	ErrBootstrapUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "Invalid bootstrap token",
	}

	ErrAlreadyBootstrapped = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyBootstrapped,
		Description: "System has already been bootstrapped",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        valErr.Code,
			Description: valErr.Message,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
