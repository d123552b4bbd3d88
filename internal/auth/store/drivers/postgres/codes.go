package postgres

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
)

type codesRepo struct {
	q querier
}

func (r *codesRepo) CreateCode(ctx context.Context, c domain.OneTimeCode) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO one_time_codes (id, user_id, code_hash, created_at, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.CodeHash, utc(c.CreatedAt), utc(c.ExpiresAt), c.IPAddress, c.UserAgent,
	)
	return mapConstraint(err)
}

func (r *codesRepo) SupersedeCodes(ctx context.Context, userID string, now time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE one_time_codes SET expires_at = $1
		WHERE user_id = $2 AND NOT verified AND expires_at > $1`,
		utc(now), userID,
	)
	return err
}

func (r *codesRepo) CountCodesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM one_time_codes WHERE user_id = $1 AND created_at > $2`,
		userID, utc(since),
	).Scan(&n)
	return n, err
}

func (r *codesRepo) ConsumeCode(ctx context.Context, userID, codeHash string, now time.Time) (domain.OneTimeCode, error) {
	c, err := scanCode(r.q.QueryRow(ctx, `
		UPDATE one_time_codes SET verified = TRUE, verified_at = $1
		WHERE id = (
			SELECT c.id FROM one_time_codes c
			WHERE c.user_id = $2 AND c.code_hash = $3 AND NOT c.verified AND c.expires_at > $1
			ORDER BY c.created_at DESC
			LIMIT 1
			FOR UPDATE
		) AND NOT verified
		RETURNING `+codeColumns,
		utc(now), userID, codeHash,
	))
	return c, mapNotFound(err)
}

func (r *codesRepo) RecordFailedAttempt(ctx context.Context, userID string, now time.Time, maxAttempts int) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		UPDATE one_time_codes
		SET attempts = attempts + 1,
			expires_at = CASE WHEN attempts + 1 >= $3 THEN $1 ELSE expires_at END
		WHERE user_id = $2 AND NOT verified AND expires_at > $1
		RETURNING attempts`,
		utc(now), userID, maxAttempts,
	).Scan(&n)
	return n, mapNotFound(err)
}

func (r *codesRepo) DeleteStaleCodes(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM one_time_codes
		WHERE (expires_at <= $1 OR verified) AND created_at < $2`,
		utc(now), utc(createdBefore),
	)
	return tag.RowsAffected(), err
}
