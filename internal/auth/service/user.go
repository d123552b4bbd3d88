package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/idx"
	"github.com/smartplant/auth/pkg/slogx"
)

// MinPasswordLength applies to registration and bootstrap.
const MinPasswordLength = 8

type UserService struct {
	Store         store.Store
	RefreshTokens *RefreshLedger
	Now           func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a user with the public role.
func (s *UserService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	u, err := newUser(username, email, password, domain.RolePublic, s.now())
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// newUser validates the input and hashes the password.
func newUser(username, email, password string, role domain.Role, now time.Time) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)
	if username == "" || email == "" || len(password) < MinPasswordLength {
		return domain.User{}, ErrInvalidRequest
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.User{}, ErrInvalidRequest
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// SetRole changes the role of userID. Access tokens already issued keep the
// old role claim, but the gate reads the role from the user record.
func (s *UserService) SetRole(ctx context.Context, userID, role string) (domain.User, error) {
	r, ok := domain.ParseRole(role)
	if !ok {
		return domain.User{}, ErrInvalidRole
	}
	if err := s.Store.Users().UpdateUserRole(ctx, userID, r, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	slogx.FromContext(ctx).Info("user role changed", slog.String("user_id", userID), slog.String("role", r.String()))
	return s.GetUserByID(ctx, userID)
}

// ListSessions returns the user's active refresh tokens, newest first.
func (s *UserService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	tokens, err := s.RefreshTokens.ListActive(ctx, s.Store, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, domain.Session{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
			IPAddress: t.IPAddress,
			UserAgent: t.UserAgent,
		})
	}
	return out, nil
}

// RevokeSessions revokes every refresh token of userID. Access tokens run
// out on their own within fifteen minutes.
func (s *UserService) RevokeSessions(ctx context.Context, userID string) (int64, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return 0, err
	}
	return s.RefreshTokens.RevokeAll(ctx, s.Store, userID)
}
