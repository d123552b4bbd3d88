package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/idx"
)

const (
	// CodeTTL is how long an emailed code stays usable.
	CodeTTL = 10 * time.Minute

	// CodeWindow and MaxCodesPerWindow bound how many codes one user can be
	// sent: the sixth request inside the window is refused.
	CodeWindow        = 15 * time.Minute
	MaxCodesPerWindow = 5

	// MaxCodeAttempts is how many wrong guesses a code survives. The guess
	// that reaches it expires the code.
	MaxCodeAttempts = 5
)

// CodeLedger owns the one_time_codes table. Every method takes the store to
// run against so callers can keep issuance and its limit check in one
// transaction.
type CodeLedger struct {
	Now func() time.Time
}

func (l *CodeLedger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// GenerateCode returns six decimal digits derived with HOTP from a random
// secret and counter.
func GenerateCode() (string, error) {
	var buf [28]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}
	secret := base32.StdEncoding.EncodeToString(buf[:20])
	counter := binary.BigEndian.Uint64(buf[20:])

	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// RecentCount counts the codes created for userID in the trailing window,
// superseded ones included.
func (l *CodeLedger) RecentCount(ctx context.Context, s store.Store, userID string) (int64, error) {
	return s.OneTimeCodes().CountCodesSince(ctx, userID, l.now().Add(-CodeWindow))
}

// Issue invalidates the user's outstanding codes and pending mails, stores a
// fresh code and returns it with its plaintext digits.
func (l *CodeLedger) Issue(ctx context.Context, s store.Store, userID, ip, ua string) (domain.OneTimeCode, string, error) {
	now := l.now()

	code, err := GenerateCode()
	if err != nil {
		return domain.OneTimeCode{}, "", err
	}

	if err := s.OneTimeCodes().SupersedeCodes(ctx, userID, now); err != nil {
		return domain.OneTimeCode{}, "", fmt.Errorf("supersede codes: %w", err)
	}
	if err := s.MailDeliveries().DeleteUserMail(ctx, userID); err != nil {
		return domain.OneTimeCode{}, "", fmt.Errorf("drop pending mail: %w", err)
	}

	rec := domain.OneTimeCode{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		CodeHash:  cryptox.FingerprintToken(code),
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
		IPAddress: ip,
		UserAgent: ua,
	}
	if err := s.OneTimeCodes().CreateCode(ctx, rec); err != nil {
		return domain.OneTimeCode{}, "", fmt.Errorf("create code: %w", err)
	}
	return rec, code, nil
}

// Consume marks the matching code verified. A wrong, expired, superseded or
// already used code yields ErrInvalidCode.
func (l *CodeLedger) Consume(ctx context.Context, s store.Store, userID, code string) (domain.OneTimeCode, error) {
	rec, err := s.OneTimeCodes().ConsumeCode(ctx, userID, cryptox.FingerprintToken(code), l.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OneTimeCode{}, ErrInvalidCode
		}
		return domain.OneTimeCode{}, err
	}
	return rec, nil
}

// RecordFailure counts a wrong guess against the user's active code. It must
// run outside the transaction that failed to consume, or the count would be
// rolled back with it. Once MaxCodeAttempts is reached the code is expired
// and ErrTooManyAttempts is returned; otherwise ErrInvalidCode.
func (l *CodeLedger) RecordFailure(ctx context.Context, s store.Store, userID string) error {
	n, err := s.OneTimeCodes().RecordFailedAttempt(ctx, userID, l.now(), MaxCodeAttempts)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrInvalidCode
	case err != nil:
		return fmt.Errorf("record failed attempt: %w", err)
	case n >= MaxCodeAttempts:
		return ErrTooManyAttempts
	default:
		return ErrInvalidCode
	}
}
