package domain

import "time"

// OneTimeCode is an emailed login code. Only the fingerprint of the six
// digits is kept; the plaintext lives in the MailDelivery until it is sent.
type OneTimeCode struct {
	ID         string
	UserID     string
	CodeHash   string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Verified   bool
	VerifiedAt *time.Time
	IPAddress  string
	UserAgent  string
	// Attempts counts wrong guesses made against this code.
	Attempts int
}

// MailDelivery is an outbox row for a one-time code email. It shares its ID
// with the OneTimeCode it delivers.
type MailDelivery struct {
	ID            string
	UserID        string
	Email         string
	Username      string
	Code          string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}
