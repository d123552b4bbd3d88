package authsdk

import "time"

// ErrorResponse is the JSON shape of an APIError on the wire.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned by the bootstrap endpoint when fields
// fail validation.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    User   `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the first step of a login. It never carries an access
// token: TempToken only proves the password and must be exchanged together
// with the emailed code.
type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RequiresMFA bool   `json:"requiresMFA"`
	TempToken   string `json:"tempToken"`
	Email       string `json:"email"` // masked, e.g. "al***@example.com"
}

type VerifyMFARequest struct {
	TempToken string `json:"tempToken"`
	Code      string `json:"code"`
}

type ResendMFARequest struct {
	TempToken string `json:"tempToken"`
}

// AuthResponse is returned by verify-mfa and refresh-token.
type AuthResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
	User         User   `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LogoutAllResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RevokedSessions int64  `json:"revokedSessions"`
}

type MeResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// SessionInfo describes one active refresh token.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

type SessionsResponse struct {
	Success  bool          `json:"success"`
	Sessions []SessionInfo `json:"sessions"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type UserResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type IntrospectRequest struct {
	Token string `json:"token"`
}

// IntrospectResponse reports whether an access token would pass the gate.
// Error carries the gate's reason when Active is false.
type IntrospectResponse struct {
	Active bool   `json:"active"`
	User   *User  `json:"user,omitempty"`
	Error  string `json:"error,omitempty"`
}

type BootstrapRequest struct {
	AdminUsername string `json:"admin_username"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

type BootstrapResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
