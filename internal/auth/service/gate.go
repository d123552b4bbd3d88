package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smartplant/auth/internal/auth/metrics"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/httpx"
	"github.com/smartplant/auth/pkg/slogx"
)

// Gate authenticates access tokens on protected routes. The revocation
// ledger is consulted before the signature so a logged-out token is refused
// even while it still verifies.
type Gate struct {
	Store     store.Store
	Tokens    *TokenIssuer
	Blacklist *Blacklist
}

var _ httpx.Authenticator = (*Gate)(nil)

// Authenticate runs every check and returns the caller identity, read from
// the current user record so role changes apply immediately. Errors are safe
// to show to the client.
func (g *Gate) Authenticate(ctx context.Context, raw string) (httpx.Identity, error) {
	if raw == "" {
		return httpx.Identity{}, g.reject("missing", ErrUnauthenticated)
	}

	revoked, err := g.Blacklist.Contains(ctx, raw)
	if err != nil {
		slogx.FromContext(ctx).Error("blacklist lookup failed", slog.Any("error", err))
		return httpx.Identity{}, g.reject("error", ErrInvalidToken)
	}
	if revoked {
		return httpx.Identity{}, g.reject("revoked", ErrTokenRevoked)
	}

	claims, err := g.Tokens.ParseAccess(raw)
	if err != nil {
		return httpx.Identity{}, g.reject(reasonFor(err), err)
	}

	user, err := g.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Error("user lookup failed", slog.Any("error", err))
			return httpx.Identity{}, g.reject("error", ErrInvalidToken)
		}
		return httpx.Identity{}, g.reject("user_not_found", ErrUserNotFound)
	}

	return httpx.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role.String(),
		Username: user.Username,
	}, nil
}

func (g *Gate) reject(reason string, err error) error {
	metrics.GateRejections.WithLabelValues(reason).Inc()
	return err
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenTampered):
		return "lifetime"
	case errors.Is(err, ErrTemporaryToken):
		return "temporary"
	default:
		return "invalid"
	}
}
