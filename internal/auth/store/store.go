package store

import (
	"context"
	"errors"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are reached through methods so a Tx can hand
// out the same repos bound to its transaction, and so nobody starts a
// transaction inside a transaction by accident.
//
// Every method that compares against the clock takes now explicitly; drivers
// never read the wall clock themselves.
type Store interface {
	Users() Users
	OneTimeCodes() OneTimeCodes
	RefreshTokens() RefreshTokens
	Blacklist() Blacklist
	MailDeliveries() MailDeliveries

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the lower-cased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserRole changes the role and bumps updated_at.
	UpdateUserRole(ctx context.Context, userID string, role domain.Role, now time.Time) error

	// LockUser serialises writers working on behalf of one user for the rest
	// of the transaction. Outside a transaction it only checks existence.
	LockUser(ctx context.Context, userID string) error

	// CountUsersByRole is used by bootstrap to detect an existing admin.
	CountUsersByRole(ctx context.Context, role domain.Role) (int64, error)
}

type OneTimeCodes interface {
	CreateCode(ctx context.Context, c domain.OneTimeCode) error

	// SupersedeCodes expires every unverified, unexpired code of the user.
	// The rows are kept so they still count towards the issuance limit.
	SupersedeCodes(ctx context.Context, userID string, now time.Time) error

	// CountCodesSince counts codes created for the user after since.
	CountCodesSince(ctx context.Context, userID string, since time.Time) (int64, error)

	// ConsumeCode marks the newest unverified, unexpired code with codeHash
	// verified and returns it. ErrNotFound when nothing matched.
	ConsumeCode(ctx context.Context, userID, codeHash string, now time.Time) (domain.OneTimeCode, error)

	// RecordFailedAttempt counts a wrong guess against the user's active code
	// and expires the code once maxAttempts is reached. It returns the new
	// count, or ErrNotFound when the user has no active code.
	RecordFailedAttempt(ctx context.Context, userID string, now time.Time, maxAttempts int) (int, error)

	// DeleteStaleCodes removes expired or verified codes created before
	// createdBefore.
	DeleteStaleCodes(ctx context.Context, now, createdBefore time.Time) (int64, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetActiveRefreshTokenByHash returns an unrevoked, unexpired token.
	GetActiveRefreshTokenByHash(ctx context.Context, hash string, now time.Time) (domain.RefreshToken, error)

	// GetRefreshTokenByHash returns the token in any state, revoked included.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RotateRefreshToken revokes the token iff it is still active, recording
	// replacedBy, and returns the row as it was before the update. ErrNotFound
	// when the token was already revoked, expired or unknown.
	RotateRefreshToken(ctx context.Context, hash, replacedBy string, now time.Time) (domain.RefreshToken, error)

	// RevokeRefreshToken revokes the token if it belongs to userID. It reports
	// whether a row changed.
	RevokeRefreshToken(ctx context.Context, hash, userID string, now time.Time) (bool, error)

	RevokeAllUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error)

	ListActiveRefreshTokens(ctx context.Context, userID string, now time.Time) ([]domain.RefreshToken, error)

	// DeleteStaleRefreshTokens removes expired tokens and tokens revoked
	// before revokedBefore.
	DeleteStaleRefreshTokens(ctx context.Context, now, revokedBefore time.Time) (int64, error)
}

type Blacklist interface {
	// AddToBlacklist upserts the entry, keeping the later expiry.
	AddToBlacklist(ctx context.Context, e domain.BlacklistEntry) error

	IsBlacklisted(ctx context.Context, hash string, now time.Time) (bool, error)

	DeleteExpiredBlacklist(ctx context.Context, now time.Time) (int64, error)
}

type MailDeliveries interface {
	EnqueueMail(ctx context.Context, d domain.MailDelivery) error

	// ListDueMail returns unexpired rows whose next attempt is due, oldest first.
	ListDueMail(ctx context.Context, now time.Time, limit int) ([]domain.MailDelivery, error)

	// ClaimMail moves next_attempt_at from expected to leaseUntil. Only one
	// worker can win the claim for a given expected value.
	ClaimMail(ctx context.Context, id string, expected, leaseUntil time.Time) (bool, error)

	// RescheduleMail records a failed attempt.
	RescheduleMail(ctx context.Context, id string, attempts int, next time.Time, lastError string) error

	DeleteMail(ctx context.Context, id string) error

	// DeleteUserMail drops pending deliveries of superseded codes.
	DeleteUserMail(ctx context.Context, userID string) error

	DeleteExpiredMail(ctx context.Context, now time.Time) (int64, error)
}
