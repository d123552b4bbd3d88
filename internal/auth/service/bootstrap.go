package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapDisabled     = errors.New("bootstrap disabled")
)

// BootstrapService creates the first administrator. It works once, and only
// with the token configured at startup.
type BootstrapService struct {
	Store store.Store
	Token string
	Now   func() time.Time
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	n, err := s.Store.Users().CountUsersByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req domain.BootstrapData) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" {
		return domain.User{}, ErrBootstrapDisabled
	}
	if !cryptox.ConstantTimeEqual(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	admin, err := newUser(req.AdminUsername, req.AdminEmail, req.AdminPassword, domain.RoleAdmin, now)
	if err != nil {
		return domain.User{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Users().CountUsersByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBootstrapAlready
		}
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return domain.User{}, err
	}

	l.Info("successfully bootstrapped system", slog.String("admin_user_id", admin.ID))
	return admin, nil
}
