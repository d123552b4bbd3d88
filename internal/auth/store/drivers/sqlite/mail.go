package sqlite

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
)

type mailRepo struct {
	q *gen.Queries
}

func (r *mailRepo) EnqueueMail(ctx context.Context, d domain.MailDelivery) error {
	err := r.q.EnqueueMail(ctx, gen.EnqueueMailParams{
		ID:            d.ID,
		UserID:        d.UserID,
		Email:         d.Email,
		Username:      d.Username,
		Code:          d.Code,
		NextAttemptAt: utc(d.NextAttemptAt),
		CreatedAt:     utc(d.CreatedAt),
		ExpiresAt:     utc(d.ExpiresAt),
	})
	return mapConstraint(err)
}

func (r *mailRepo) ListDueMail(ctx context.Context, now time.Time, limit int) ([]domain.MailDelivery, error) {
	rows, err := r.q.ListDueMail(ctx, gen.ListDueMailParams{Now: utc(now), Limit: int64(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]domain.MailDelivery, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMail(row))
	}
	return out, nil
}

func (r *mailRepo) ClaimMail(ctx context.Context, id string, expected, leaseUntil time.Time) (bool, error) {
	n, err := r.q.ClaimMail(ctx, gen.ClaimMailParams{
		LeaseUntil: utc(leaseUntil),
		ID:         id,
		Expected:   utc(expected),
	})
	return n == 1, err
}

func (r *mailRepo) RescheduleMail(ctx context.Context, id string, attempts int, next time.Time, lastError string) error {
	return r.q.RescheduleMail(ctx, gen.RescheduleMailParams{
		Attempts:      int64(attempts),
		NextAttemptAt: utc(next),
		LastError:     lastError,
		ID:            id,
	})
}

func (r *mailRepo) DeleteMail(ctx context.Context, id string) error {
	return r.q.DeleteMail(ctx, id)
}

func (r *mailRepo) DeleteUserMail(ctx context.Context, userID string) error {
	return r.q.DeleteUserMail(ctx, userID)
}

func (r *mailRepo) DeleteExpiredMail(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredMail(ctx, utc(now))
}
