package domain

import "time"

// LoginChallenge is what a successful password check returns: a temporary
// token to present with the emailed code.
type LoginChallenge struct {
	TempToken   string
	MaskedEmail string
}

// AuthResult is the outcome of MFA verification or a refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         User
}

// Session describes one active refresh token for listing to its owner.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}
