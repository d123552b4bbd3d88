package postgres

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
)

type blacklistRepo struct {
	q querier
}

func (r *blacklistRepo) AddToBlacklist(ctx context.Context, e domain.BlacklistEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO token_blacklist (token_hash, expires_at, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE
		SET expires_at = GREATEST(token_blacklist.expires_at, EXCLUDED.expires_at)`,
		e.TokenHash, utc(e.ExpiresAt), utc(e.CreatedAt),
	)
	return err
}

func (r *blacklistRepo) IsBlacklisted(ctx context.Context, hash string, now time.Time) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token_hash = $1 AND expires_at > $2)`,
		hash, utc(now),
	).Scan(&ok)
	return ok, err
}

func (r *blacklistRepo) DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM token_blacklist WHERE expires_at <= $1`, utc(now))
	return tag.RowsAffected(), err
}
