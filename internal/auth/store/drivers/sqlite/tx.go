package sqlite

import (
	"context"
	"database/sql"

	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite/gen"
)

type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx: tx,
		q:  gen.New(tx),
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the caller commits or rolls back and the outer DB stays open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                   { return &usersRepo{q: t.q} }
func (t *txStore) OneTimeCodes() store.OneTimeCodes     { return &codesRepo{q: t.q} }
func (t *txStore) RefreshTokens() store.RefreshTokens   { return &refreshTokensRepo{q: t.q} }
func (t *txStore) Blacklist() store.Blacklist           { return &blacklistRepo{q: t.q} }
func (t *txStore) MailDeliveries() store.MailDeliveries { return &mailRepo{q: t.q} }

// ApplyMigrations is a no-op; migrations are applied before any tx starts.
func (t *txStore) ApplyMigrations() error { return nil }
