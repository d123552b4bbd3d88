package service

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/jwtx"
)

// Blacklist is the revocation ledger for access tokens. Entries live for
// one access token lifetime from the moment of logout, which always covers
// the token's remaining validity.
type Blacklist struct {
	Store store.Store
	TTL   time.Duration
	Now   func() time.Time
}

func (b *Blacklist) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Add revokes accessToken. s may be a transaction; nil means b.Store.
func (b *Blacklist) Add(ctx context.Context, s store.Store, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if s == nil {
		s = b.Store
	}
	ttl := b.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	now := b.now()
	return s.Blacklist().AddToBlacklist(ctx, domain.BlacklistEntry{
		TokenHash: cryptox.FingerprintToken(accessToken),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
}

// Contains reports whether accessToken is currently revoked.
func (b *Blacklist) Contains(ctx context.Context, accessToken string) (bool, error) {
	return b.Store.Blacklist().IsBlacklisted(ctx, cryptox.FingerprintToken(accessToken), b.now())
}
