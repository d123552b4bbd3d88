package domain

import "time"

// RefreshToken models the stored refresh token record in the DB. The opaque
// token itself is never stored, only its fingerprint.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string // base64url SHA-256 of the opaque token
	ExpiresAt  time.Time
	Revoked    bool
	RevokedAt  *time.Time
	ReplacedBy string // fingerprint of the successor, empty unless rotated
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}

// Active reports whether the token can still be exchanged at now.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// BlacklistEntry records a logged-out access token until it would have
// expired anyway.
type BlacklistEntry struct {
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
