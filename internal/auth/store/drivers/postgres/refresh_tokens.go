package postgres

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.TokenHash, utc(t.ExpiresAt), t.IPAddress, t.UserAgent, utc(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetActiveRefreshTokenByHash(
	ctx context.Context,
	hash string,
	now time.Time,
) (domain.RefreshToken, error) {
	t, err := scanRefreshToken(r.q.QueryRow(ctx, `
		SELECT `+refreshColumns+` FROM refresh_tokens
		WHERE token_hash = $1 AND NOT revoked AND expires_at > $2`,
		hash, utc(now),
	))
	return t, mapNotFound(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	t, err := scanRefreshToken(r.q.QueryRow(ctx,
		`SELECT `+refreshColumns+` FROM refresh_tokens WHERE token_hash = $1`, hash))
	return t, mapNotFound(err)
}

// RotateRefreshToken relies on the row lock taken by UPDATE: a second
// concurrent rotation re-evaluates the WHERE clause after the first commits
// and matches nothing.
func (r *refreshTokensRepo) RotateRefreshToken(
	ctx context.Context,
	hash, replacedBy string,
	now time.Time,
) (domain.RefreshToken, error) {
	t, err := scanRefreshToken(r.q.QueryRow(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1, replaced_by = $2
		WHERE token_hash = $3 AND NOT revoked AND expires_at > $1
		RETURNING `+refreshColumns,
		utc(now), emptyToNil(replacedBy), hash,
	))
	return t, mapNotFound(err)
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash, userID string, now time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1
		WHERE token_hash = $2 AND user_id = $3 AND NOT revoked`,
		utc(now), hash, userID,
	)
	return tag.RowsAffected() > 0, err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1
		WHERE user_id = $2 AND NOT revoked`,
		utc(now), userID,
	)
	return tag.RowsAffected(), err
}

func (r *refreshTokensRepo) ListActiveRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]domain.RefreshToken, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+refreshColumns+` FROM refresh_tokens
		WHERE user_id = $1 AND NOT revoked AND expires_at > $2
		ORDER BY created_at DESC`,
		userID, utc(now),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRefreshToken)
}

func (r *refreshTokensRepo) DeleteStaleRefreshTokens(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1 OR (revoked AND revoked_at < $2)`,
		utc(now), utc(revokedBefore),
	)
	return tag.RowsAffected(), err
}
