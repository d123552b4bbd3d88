// Package postgres is the PostgreSQL store driver. It is selected when
// AUTH_DATABASE_URL is set and is the driver to run when more than one
// replica of the service shares a database.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	dsn  string
}

// NewStore opens a pool against dsn (a postgres:// URL) and pings it.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, dsn: dsn}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Tx starts a READ COMMITTED transaction. Per-user serialisation comes from
// LockUser, not from the isolation level.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, ctx: ctx}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                   { return &usersRepo{q: s.pool} }
func (s *Store) OneTimeCodes() store.OneTimeCodes     { return &codesRepo{q: s.pool} }
func (s *Store) RefreshTokens() store.RefreshTokens   { return &refreshTokensRepo{q: s.pool} }
func (s *Store) Blacklist() store.Blacklist           { return &blacklistRepo{q: s.pool} }
func (s *Store) MailDeliveries() store.MailDeliveries { return &mailRepo{q: s.pool} }

type txStore struct {
	tx  pgx.Tx
	ctx context.Context
}

func (t *txStore) Commit() error   { return t.tx.Commit(t.ctx) }
func (t *txStore) Rollback() error { return t.tx.Rollback(context.WithoutCancel(t.ctx)) }

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, pgx.ErrTxClosed
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.ErrTxClosed
}

func (t *txStore) Users() store.Users                   { return &usersRepo{q: t.tx} }
func (t *txStore) OneTimeCodes() store.OneTimeCodes     { return &codesRepo{q: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens   { return &refreshTokensRepo{q: t.tx} }
func (t *txStore) Blacklist() store.Blacklist           { return &blacklistRepo{q: t.tx} }
func (t *txStore) MailDeliveries() store.MailDeliveries { return &mailRepo{q: t.tx} }

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return store.ErrAlreadyExists
		case pgForeignKeyViolation:
			return store.ErrNotFound
		}
	}
	return err
}

// utc keeps microsecond precision, which is what TIMESTAMPTZ stores, so a
// value read back compares equal to the one written.
func utc(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

const codeColumns = `id, user_id, code_hash, created_at, expires_at, verified, verified_at, ip_address, user_agent, attempts`

func scanCode(row pgx.Row) (domain.OneTimeCode, error) {
	var c domain.OneTimeCode
	err := row.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.CreatedAt, &c.ExpiresAt,
		&c.Verified, &c.VerifiedAt, &c.IPAddress, &c.UserAgent, &c.Attempts)
	if err != nil {
		return domain.OneTimeCode{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	c.VerifiedAt = utcPtr(c.VerifiedAt)
	return c, nil
}

const refreshColumns = `id, user_id, token_hash, expires_at, revoked, revoked_at, replaced_by, ip_address, user_agent, created_at`

func scanRefreshToken(row pgx.Row) (domain.RefreshToken, error) {
	var (
		t          domain.RefreshToken
		replacedBy *string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked,
		&t.RevokedAt, &replacedBy, &t.IPAddress, &t.UserAgent, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	t.ReplacedBy = strOrEmpty(replacedBy)
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.RevokedAt = utcPtr(t.RevokedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

const mailColumns = `id, user_id, email, username, code, attempts, next_attempt_at, last_error, created_at, expires_at`

func scanMail(row pgx.Row) (domain.MailDelivery, error) {
	var d domain.MailDelivery
	err := row.Scan(&d.ID, &d.UserID, &d.Email, &d.Username, &d.Code, &d.Attempts,
		&d.NextAttemptAt, &d.LastError, &d.CreatedAt, &d.ExpiresAt)
	if err != nil {
		return domain.MailDelivery{}, err
	}
	d.NextAttemptAt = d.NextAttemptAt.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	d.ExpiresAt = d.ExpiresAt.UTC()
	return d, nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
