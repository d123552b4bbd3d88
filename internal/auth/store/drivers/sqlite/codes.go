package sqlite

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
)

type codesRepo struct {
	q *gen.Queries
}

func (r *codesRepo) CreateCode(ctx context.Context, c domain.OneTimeCode) error {
	err := r.q.CreateOneTimeCode(ctx, gen.CreateOneTimeCodeParams{
		ID:        c.ID,
		UserID:    c.UserID,
		CodeHash:  c.CodeHash,
		CreatedAt: utc(c.CreatedAt),
		ExpiresAt: utc(c.ExpiresAt),
		IpAddress: c.IPAddress,
		UserAgent: c.UserAgent,
	})
	return mapConstraint(err)
}

func (r *codesRepo) SupersedeCodes(ctx context.Context, userID string, now time.Time) error {
	return r.q.SupersedeOneTimeCodes(ctx, gen.SupersedeOneTimeCodesParams{
		Now:    utc(now),
		UserID: userID,
	})
}

func (r *codesRepo) CountCodesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return r.q.CountOneTimeCodesSince(ctx, gen.CountOneTimeCodesSinceParams{
		UserID:    userID,
		CreatedAt: utc(since),
	})
}

func (r *codesRepo) ConsumeCode(ctx context.Context, userID, codeHash string, now time.Time) (domain.OneTimeCode, error) {
	row, err := r.q.ConsumeOneTimeCode(ctx, gen.ConsumeOneTimeCodeParams{
		Now:      utc(now),
		UserID:   userID,
		CodeHash: codeHash,
	})
	if err != nil {
		return domain.OneTimeCode{}, mapNotFound(err)
	}
	return mapCode(row), nil
}

func (r *codesRepo) RecordFailedAttempt(ctx context.Context, userID string, now time.Time, maxAttempts int) (int, error) {
	n, err := r.q.RecordOneTimeCodeFailure(ctx, gen.RecordOneTimeCodeFailureParams{
		Now:         utc(now),
		UserID:      userID,
		MaxAttempts: int64(maxAttempts),
	})
	if err != nil {
		return 0, mapNotFound(err)
	}
	return int(n), nil
}

func (r *codesRepo) DeleteStaleCodes(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	return r.q.DeleteStaleOneTimeCodes(ctx, gen.DeleteStaleOneTimeCodesParams{
		Now:           utc(now),
		CreatedBefore: utc(createdBefore),
	})
}
