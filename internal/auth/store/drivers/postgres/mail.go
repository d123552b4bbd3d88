package postgres

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
)

type mailRepo struct {
	q querier
}

func (r *mailRepo) EnqueueMail(ctx context.Context, d domain.MailDelivery) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO mail_deliveries (id, user_id, email, username, code, attempts, next_attempt_at, last_error, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, '', $7, $8)`,
		d.ID, d.UserID, d.Email, d.Username, d.Code, utc(d.NextAttemptAt), utc(d.CreatedAt), utc(d.ExpiresAt),
	)
	return mapConstraint(err)
}

func (r *mailRepo) ListDueMail(ctx context.Context, now time.Time, limit int) ([]domain.MailDelivery, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+mailColumns+` FROM mail_deliveries
		WHERE next_attempt_at <= $1 AND expires_at > $1
		ORDER BY next_attempt_at
		LIMIT $2`,
		utc(now), limit,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMail)
}

func (r *mailRepo) ClaimMail(ctx context.Context, id string, expected, leaseUntil time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE mail_deliveries SET next_attempt_at = $1
		WHERE id = $2 AND next_attempt_at = $3`,
		utc(leaseUntil), id, utc(expected),
	)
	return tag.RowsAffected() == 1, err
}

func (r *mailRepo) RescheduleMail(ctx context.Context, id string, attempts int, next time.Time, lastError string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE mail_deliveries SET attempts = $1, next_attempt_at = $2, last_error = $3
		WHERE id = $4`,
		attempts, utc(next), lastError, id,
	)
	return err
}

func (r *mailRepo) DeleteMail(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM mail_deliveries WHERE id = $1`, id)
	return err
}

func (r *mailRepo) DeleteUserMail(ctx context.Context, userID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM mail_deliveries WHERE user_id = $1`, userID)
	return err
}

func (r *mailRepo) DeleteExpiredMail(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM mail_deliveries WHERE expires_at <= $1`, utc(now))
	return tag.RowsAffected(), err
}
