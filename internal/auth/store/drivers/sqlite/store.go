package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// DSN builds the connection string for a database file. Every connection
// enforces foreign keys, waits on locks instead of failing, and starts write
// transactions with BEGIN IMMEDIATE so read-then-write sequences (issuance
// limit checks, refresh rotation) are serialised. Times are written in the
// sortable SQLite format so range comparisons in queries are correct.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return fmt.Sprintf("file:%s?%s", path, q.Encode())
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Safe to call after commit.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                   { return &usersRepo{q: s.q} }
func (s *Store) OneTimeCodes() store.OneTimeCodes     { return &codesRepo{q: s.q} }
func (s *Store) RefreshTokens() store.RefreshTokens   { return &refreshTokensRepo{q: s.q} }
func (s *Store) Blacklist() store.Blacklist           { return &blacklistRepo{q: s.q} }
func (s *Store) MailDeliveries() store.MailDeliveries { return &mailRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return store.ErrNotFound
		}
	}
	return err
}

// utc drops the location and monotonic reading so every stored timestamp has
// the same textual shape.
func utc(t time.Time) time.Time { return t.UTC().Round(0) }

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: utc(t), Valid: true}
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func mapCode(row gen.OneTimeCode) domain.OneTimeCode {
	return domain.OneTimeCode{
		ID:         row.ID,
		UserID:     row.UserID,
		CodeHash:   row.CodeHash,
		CreatedAt:  row.CreatedAt.UTC(),
		ExpiresAt:  row.ExpiresAt.UTC(),
		Verified:   row.Verified,
		VerifiedAt: mapNullTimePtr(row.VerifiedAt),
		IPAddress:  row.IpAddress,
		UserAgent:  row.UserAgent,
		Attempts:   int(row.Attempts),
	}
}

func mapRefreshToken(row gen.RefreshToken) domain.RefreshToken {
	return domain.RefreshToken{
		ID:         row.ID,
		UserID:     row.UserID,
		TokenHash:  row.TokenHash,
		ExpiresAt:  row.ExpiresAt.UTC(),
		Revoked:    row.Revoked,
		RevokedAt:  mapNullTimePtr(row.RevokedAt),
		ReplacedBy: mapNullString(row.ReplacedBy),
		IPAddress:  row.IpAddress,
		UserAgent:  row.UserAgent,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func mapMail(row gen.MailDelivery) domain.MailDelivery {
	return domain.MailDelivery{
		ID:            row.ID,
		UserID:        row.UserID,
		Email:         row.Email,
		Username:      row.Username,
		Code:          row.Code,
		Attempts:      int(row.Attempts),
		NextAttemptAt: row.NextAttemptAt.UTC(),
		LastError:     row.LastError,
		CreatedAt:     row.CreatedAt.UTC(),
		ExpiresAt:     row.ExpiresAt.UTC(),
	}
}
