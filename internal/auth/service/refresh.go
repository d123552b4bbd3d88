package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/idx"
	"github.com/smartplant/auth/pkg/jwtx"
)

// RefreshLedger issues and rotates opaque refresh tokens. Only their
// fingerprints reach the database.
type RefreshLedger struct {
	TTL time.Duration
	Now func() time.Time
}

func (l *RefreshLedger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *RefreshLedger) ttl() time.Duration {
	if l.TTL > 0 {
		return l.TTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Issue creates a new refresh token for userID and returns the opaque value.
func (l *RefreshLedger) Issue(ctx context.Context, s store.Store, userID, ip, ua string) (string, domain.RefreshToken, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}
	rec, err := l.create(ctx, s, raw, userID, ip, ua)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}
	return raw, rec, nil
}

func (l *RefreshLedger) create(ctx context.Context, s store.Store, raw, userID, ip, ua string) (domain.RefreshToken, error) {
	now := l.now()
	rec := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(l.ttl()),
		IPAddress: ip,
		UserAgent: ua,
		CreatedAt: now,
	}
	if err := s.RefreshTokens().CreateRefreshToken(ctx, rec); err != nil {
		return domain.RefreshToken{}, fmt.Errorf("create refresh token: %w", err)
	}
	return rec, nil
}

// Lookup returns the active record for raw or ErrInvalidRefreshToken.
func (l *RefreshLedger) Lookup(ctx context.Context, s store.Store, raw string) (domain.RefreshToken, error) {
	if raw == "" {
		return domain.RefreshToken{}, ErrInvalidRefreshToken
	}
	rec, err := s.RefreshTokens().GetActiveRefreshTokenByHash(ctx, cryptox.FingerprintToken(raw), l.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrInvalidRefreshToken
		}
		return domain.RefreshToken{}, err
	}
	return rec, nil
}

// Rotate revokes raw and issues its successor. The revoke is a single
// conditional update, so of two concurrent rotations of the same token only
// one succeeds; the other gets ErrInvalidRefreshToken. s should be a
// transaction so a failed successor insert also undoes the revoke.
func (l *RefreshLedger) Rotate(ctx context.Context, s store.Store, raw, ip, ua string) (string, domain.RefreshToken, error) {
	if raw == "" {
		return "", domain.RefreshToken{}, ErrInvalidRefreshToken
	}

	next, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}

	old, err := s.RefreshTokens().RotateRefreshToken(ctx,
		cryptox.FingerprintToken(raw), cryptox.FingerprintToken(next), l.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.RefreshToken{}, ErrInvalidRefreshToken
		}
		return "", domain.RefreshToken{}, err
	}

	rec, err := l.create(ctx, s, next, old.UserID, ip, ua)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}
	return next, rec, nil
}

// Inspect returns the record for raw in whatever state it is in. A revoked
// record with ReplacedBy set names the fingerprint of its successor.
func (l *RefreshLedger) Inspect(ctx context.Context, s store.Store, raw string) (domain.RefreshToken, error) {
	rec, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(raw))
	if errors.Is(err, store.ErrNotFound) {
		return domain.RefreshToken{}, ErrInvalidRefreshToken
	}
	return rec, err
}

// Revoke revokes raw if userID owns it. Unknown, foreign or already revoked
// tokens are not an error.
func (l *RefreshLedger) Revoke(ctx context.Context, s store.Store, raw, userID string) error {
	if raw == "" {
		return nil
	}
	_, err := s.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(raw), userID, l.now())
	return err
}

// RevokeAll revokes every active token of userID and reports how many.
func (l *RefreshLedger) RevokeAll(ctx context.Context, s store.Store, userID string) (int64, error) {
	return s.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID, l.now())
}

func (l *RefreshLedger) ListActive(ctx context.Context, s store.Store, userID string) ([]domain.RefreshToken, error) {
	return s.RefreshTokens().ListActiveRefreshTokens(ctx, userID, l.now())
}
