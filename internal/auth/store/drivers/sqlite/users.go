package sqlite

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		CreatedAt:    utc(u.CreatedAt),
	})
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUserRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	n, err := r.q.UpdateUserRole(ctx, gen.UpdateUserRoleParams{
		Role:      role.String(),
		UpdatedAt: utc(now),
		ID:        userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// LockUser only checks existence. Transactions on this driver begin with
// BEGIN IMMEDIATE, which already holds the database write lock.
func (r *usersRepo) LockUser(ctx context.Context, userID string) error {
	ok, err := r.q.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if ok == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) CountUsersByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.q.CountUsersByRole(ctx, role.String())
}
