package postgres

import (
	"context"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
)

type usersRepo struct {
	q querier
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapNotFound(err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapNotFound(err)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role.String(), utc(u.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUserRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		role.String(), utc(now), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// LockUser takes a row lock held until the surrounding transaction ends.
func (r *usersRepo) LockUser(ctx context.Context, userID string) error {
	var id string
	err := r.q.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	return mapNotFound(err)
}

func (r *usersRepo) CountUsersByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role.String()).Scan(&n)
	return n, err
}
