package sqlite

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
)

type blacklistRepo struct {
	q *gen.Queries
}

func (r *blacklistRepo) AddToBlacklist(ctx context.Context, e domain.BlacklistEntry) error {
	return r.q.AddToBlacklist(ctx, gen.AddToBlacklistParams{
		TokenHash: e.TokenHash,
		ExpiresAt: utc(e.ExpiresAt),
		CreatedAt: utc(e.CreatedAt),
	})
}

func (r *blacklistRepo) IsBlacklisted(ctx context.Context, hash string, now time.Time) (bool, error) {
	n, err := r.q.IsBlacklisted(ctx, gen.IsBlacklistedParams{TokenHash: hash, Now: utc(now)})
	return n != 0, err
}

func (r *blacklistRepo) DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredBlacklist(ctx, utc(now))
}
