package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var t0 = time.Date(2026, 5, 4, 9, 30, 0, 123456000, time.UTC)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/auth?sslmode=disable", migrateURL("postgres://u:p@db:5432/auth?sslmode=disable"))
	require.Equal(t, "pgx5://db/auth", migrateURL("postgresql://db/auth"))
	require.Equal(t, "pgx5://db/auth", migrateURL("pgx5://db/auth"))
}

// newStore starts a throwaway PostgreSQL container. Skipped with -short.
func newStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "auth",
			"POSTGRES_PASSWORD": "auth",
			"POSTGRES_DB":       "auth",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://auth:auth@%s:%s/auth?sslmode=disable", host, port.Port())
	s, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     email[:3],
		Email:        email,
		PasswordHash: "$argon2id$stub",
		Role:         domain.RolePublic,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestPostgresStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	t.Run("migrations idempotent", func(t *testing.T) {
		require.NoError(t, s.ApplyMigrations())
	})

	t.Run("users", func(t *testing.T) {
		u := seedUser(t, s, "ana@example.com")
		got, err := s.Users().GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.True(t, t0.Equal(got.CreatedAt))

		dup := u
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
		require.ErrorIs(t, s.Users().LockUser(ctx, "missing"), store.ErrNotFound)
	})

	t.Run("codes", func(t *testing.T) {
		u := seedUser(t, s, "ben@example.com")
		for i := range 3 {
			require.NoError(t, s.OneTimeCodes().SupersedeCodes(ctx, u.ID, t0.Add(time.Duration(i)*time.Second)))
			require.NoError(t, s.OneTimeCodes().CreateCode(ctx, domain.OneTimeCode{
				ID:        idx.New().String(),
				UserID:    u.ID,
				CodeHash:  fmt.Sprintf("h%d", i),
				CreatedAt: t0.Add(time.Duration(i) * time.Second),
				ExpiresAt: t0.Add(10 * time.Minute),
			}))
		}
		n, err := s.OneTimeCodes().CountCodesSince(ctx, u.ID, t0.Add(-15*time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 3, n)

		_, err = s.OneTimeCodes().ConsumeCode(ctx, u.ID, "h0", t0.Add(time.Minute))
		require.ErrorIs(t, err, store.ErrNotFound)

		c, err := s.OneTimeCodes().ConsumeCode(ctx, u.ID, "h2", t0.Add(time.Minute))
		require.NoError(t, err)
		require.True(t, c.Verified)

		_, err = s.OneTimeCodes().ConsumeCode(ctx, u.ID, "h2", t0.Add(time.Minute))
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.OneTimeCodes().RecordFailedAttempt(ctx, u.ID, t0.Add(time.Minute), 5)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("failed attempts withdraw a code", func(t *testing.T) {
		u := seedUser(t, s, "dan@example.com")
		require.NoError(t, s.OneTimeCodes().CreateCode(ctx, domain.OneTimeCode{
			ID:        idx.New().String(),
			UserID:    u.ID,
			CodeHash:  "guessed",
			CreatedAt: t0,
			ExpiresAt: t0.Add(10 * time.Minute),
		}))
		for want := 1; want <= 2; want++ {
			n, err := s.OneTimeCodes().RecordFailedAttempt(ctx, u.ID, t0.Add(time.Second), 2)
			require.NoError(t, err)
			require.Equal(t, want, n)
		}
		_, err := s.OneTimeCodes().ConsumeCode(ctx, u.ID, "guessed", t0.Add(2*time.Second))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("refresh rotation has one winner", func(t *testing.T) {
		u := seedUser(t, s, "cat@example.com")
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: "rt-hash",
			ExpiresAt: t0.Add(7 * 24 * time.Hour),
			CreatedAt: t0,
		}))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.RefreshTokens().RotateRefreshToken(ctx, "rt-hash", fmt.Sprintf("next-%d", i), t0.Add(time.Minute))
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, wins)
	})

	t.Run("blacklist keeps later expiry", func(t *testing.T) {
		e := domain.BlacklistEntry{TokenHash: "at", ExpiresAt: t0.Add(15 * time.Minute), CreatedAt: t0}
		require.NoError(t, s.Blacklist().AddToBlacklist(ctx, e))
		e.ExpiresAt = t0.Add(time.Minute)
		require.NoError(t, s.Blacklist().AddToBlacklist(ctx, e))

		ok, err := s.Blacklist().IsBlacklisted(ctx, "at", t0.Add(10*time.Minute))
		require.NoError(t, err)
		require.True(t, ok)

		n, err := s.Blacklist().DeleteExpiredBlacklist(ctx, t0.Add(16*time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})

	t.Run("tx rollback", func(t *testing.T) {
		errBoom := fmt.Errorf("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			seedUser(t, tx, "dan@example.com")
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)
		_, err = s.Users().GetUserByEmail(ctx, "dan@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
