package sqlite

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
)

type refreshTokensRepo struct {
	q *gen.Queries
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	err := r.q.CreateRefreshToken(ctx, gen.CreateRefreshTokenParams{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: utc(t.ExpiresAt),
		IpAddress: t.IPAddress,
		UserAgent: t.UserAgent,
		CreatedAt: utc(t.CreatedAt),
	})
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetActiveRefreshTokenByHash(
	ctx context.Context,
	hash string,
	now time.Time,
) (domain.RefreshToken, error) {
	row, err := r.q.GetActiveRefreshTokenByHash(ctx, gen.GetActiveRefreshTokenByHashParams{
		TokenHash: hash,
		Now:       utc(now),
	})
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row, err := r.q.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) RotateRefreshToken(
	ctx context.Context,
	hash, replacedBy string,
	now time.Time,
) (domain.RefreshToken, error) {
	row, err := r.q.RotateRefreshToken(ctx, gen.RotateRefreshTokenParams{
		Now:        utc(now),
		ReplacedBy: mapStringNull(replacedBy),
		TokenHash:  hash,
	})
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash, userID string, now time.Time) (bool, error) {
	n, err := r.q.RevokeRefreshToken(ctx, gen.RevokeRefreshTokenParams{
		RevokedAt: nullTime(now),
		TokenHash: hash,
		UserID:    userID,
	})
	return n > 0, err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	return r.q.RevokeAllUserRefreshTokens(ctx, gen.RevokeAllUserRefreshTokensParams{
		RevokedAt: nullTime(now),
		UserID:    userID,
	})
}

func (r *refreshTokensRepo) ListActiveRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]domain.RefreshToken, error) {
	rows, err := r.q.ListActiveRefreshTokens(ctx, gen.ListActiveRefreshTokensParams{
		UserID: userID,
		Now:    utc(now),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.RefreshToken, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRefreshToken(row))
	}
	return out, nil
}

func (r *refreshTokensRepo) DeleteStaleRefreshTokens(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	return r.q.DeleteStaleRefreshTokens(ctx, gen.DeleteStaleRefreshTokensParams{
		Now:           utc(now),
		RevokedBefore: nullTime(revokedBefore),
	})
}
