package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/metrics"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/slogx"
)

// MailNotifier wakes the outbox dispatcher after a delivery was queued.
type MailNotifier interface {
	Notify()
}

// SessionService runs the login state machine: password, emailed code,
// access and refresh tokens, rotation and logout.
type SessionService struct {
	Store         store.Store
	Tokens        *TokenIssuer
	Codes         *CodeLedger
	RefreshTokens *RefreshLedger
	Blacklist     *Blacklist
	Mail          MailNotifier
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the password and, on success, queues a one-time code for the
// user and returns a temporary token. It never returns an access token.
func (s *SessionService) Login(ctx context.Context, email, password, ip, ua string) (domain.LoginChallenge, error) {
	l := slogx.FromContext(ctx)

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.LoginChallenge{}, ErrInvalidRequest
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnVerify(password)
			metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
			return domain.LoginChallenge{}, ErrInvalidCredentials
		}
		return domain.LoginChallenge{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return domain.LoginChallenge{}, ErrInvalidCredentials
	}

	if err := s.issueCode(ctx, user, ip, ua); err != nil {
		if errors.Is(err, ErrRateLimited) {
			metrics.Logins.WithLabelValues(metrics.OutcomeLimited).Inc()
		}
		return domain.LoginChallenge{}, err
	}

	temp, err := s.Tokens.MintTemporary(user)
	if err != nil {
		return domain.LoginChallenge{}, fmt.Errorf("mint temporary token: %w", err)
	}

	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	l.Info("login code issued", slog.String("user_id", user.ID))
	return domain.LoginChallenge{TempToken: temp, MaskedEmail: MaskEmail(user.Email)}, nil
}

// ResendMFA issues a new code for the holder of a temporary token, under the
// same per-user limit as Login.
func (s *SessionService) ResendMFA(ctx context.Context, tempToken, ip, ua string) error {
	if tempToken == "" {
		return ErrInvalidRequest
	}
	claims, err := s.Tokens.ParseTemporary(tempToken)
	if err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.issueCode(ctx, user, ip, ua); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("login code reissued", slog.String("user_id", user.ID))
	return nil
}

// issueCode checks the limit, stores a code and queues its mail in one
// transaction. The user row lock keeps two concurrent requests from both
// seeing four codes and creating a sixth.
func (s *SessionService) issueCode(ctx context.Context, user domain.User, ip, ua string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().LockUser(ctx, user.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		n, err := s.Codes.RecentCount(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		if n >= MaxCodesPerWindow {
			return ErrRateLimited
		}

		rec, code, err := s.Codes.Issue(ctx, tx, user.ID, ip, ua)
		if err != nil {
			return err
		}

		err = tx.MailDeliveries().EnqueueMail(ctx, domain.MailDelivery{
			ID:            rec.ID,
			UserID:        user.ID,
			Email:         user.Email,
			Username:      user.Username,
			Code:          code,
			NextAttemptAt: rec.CreatedAt,
			CreatedAt:     rec.CreatedAt,
			ExpiresAt:     rec.ExpiresAt,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.CodesIssued.Inc()
	if s.Mail != nil {
		s.Mail.Notify()
	}
	return nil
}

// VerifyMFA exchanges a temporary token and its emailed code for an access
// and refresh token pair. A code works once.
func (s *SessionService) VerifyMFA(ctx context.Context, tempToken, code, ip, ua string) (domain.AuthResult, error) {
	code = strings.TrimSpace(code)
	if tempToken == "" || code == "" {
		return domain.AuthResult{}, ErrInvalidRequest
	}

	claims, err := s.Tokens.ParseTemporary(tempToken)
	if err != nil {
		metrics.MFAVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()
		return domain.AuthResult{}, err
	}

	var result domain.AuthResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := s.Codes.Consume(ctx, tx, claims.Subject, code); err != nil {
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		result, err = s.mintPair(ctx, tx, user, ip, ua)
		return err
	})
	if errors.Is(err, ErrInvalidCode) {
		err = s.Codes.RecordFailure(ctx, s.Store, claims.Subject)
		if errors.Is(err, ErrTooManyAttempts) {
			slogx.FromContext(ctx).Warn("code withdrawn after repeated wrong guesses",
				slog.String("user_id", claims.Subject), slog.String("ip", ip))
		}
	}
	if err != nil {
		metrics.MFAVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()
		return domain.AuthResult{}, err
	}

	metrics.MFAVerifications.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slogx.FromContext(ctx).Info("login completed", slog.String("user_id", result.User.ID))
	return result, nil
}

// Refresh rotates refreshToken and returns a new pair. Reusing a rotated
// token fails with ErrInvalidRefreshToken.
func (s *SessionService) Refresh(ctx context.Context, refreshToken, ip, ua string) (domain.AuthResult, error) {
	if refreshToken == "" {
		return domain.AuthResult{}, ErrInvalidRefreshToken
	}

	var result domain.AuthResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		next, rec, err := s.RefreshTokens.Rotate(ctx, tx, refreshToken, ip, ua)
		if err != nil {
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, rec.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		access, err := s.Tokens.MintAccess(user)
		if err != nil {
			return err
		}
		result = domain.AuthResult{
			AccessToken:  access,
			RefreshToken: next,
			ExpiresIn:    s.Tokens.AccessTTL,
			User:         user,
		}
		return nil
	})
	if err != nil {
		metrics.Refreshes.WithLabelValues(metrics.OutcomeFailure).Inc()
		if errors.Is(err, ErrInvalidRefreshToken) {
			s.noteReplay(ctx, refreshToken)
		}
		return domain.AuthResult{}, err
	}

	metrics.Refreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return result, nil
}

// noteReplay logs when a token that was already rotated is presented again,
// which usually means it leaked.
func (s *SessionService) noteReplay(ctx context.Context, refreshToken string) {
	rec, err := s.RefreshTokens.Inspect(ctx, s.Store, refreshToken)
	if err != nil || !rec.Revoked || rec.ReplacedBy == "" {
		return
	}
	slogx.FromContext(ctx).Warn("rotated refresh token presented again",
		slog.String("user_id", rec.UserID), slog.String("token_id", rec.ID))
}

// Logout revokes the caller's refresh token, if given and owned by userID,
// and blacklists the access token.
func (s *SessionService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.RefreshTokens.Revoke(ctx, tx, refreshToken, userID); err != nil {
			return err
		}
		return s.Blacklist.Add(ctx, tx, accessToken)
	})
}

// LogoutAll revokes every refresh token of userID and blacklists the access
// token. It returns the number of revoked refresh tokens.
func (s *SessionService) LogoutAll(ctx context.Context, userID, accessToken string) (int64, error) {
	var n int64
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if n, err = s.RefreshTokens.RevokeAll(ctx, tx, userID); err != nil {
			return err
		}
		return s.Blacklist.Add(ctx, tx, accessToken)
	})
	if err != nil {
		return 0, err
	}
	slogx.FromContext(ctx).Info("all sessions revoked", slog.String("user_id", userID), slog.Int64("count", n))
	return n, nil
}

func (s *SessionService) mintPair(ctx context.Context, tx store.Store, user domain.User, ip, ua string) (domain.AuthResult, error) {
	access, err := s.Tokens.MintAccess(user)
	if err != nil {
		return domain.AuthResult{}, err
	}
	refresh, _, err := s.RefreshTokens.Issue(ctx, tx, user.ID, ip, ua)
	if err != nil {
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.Tokens.AccessTTL,
		User:         user,
	}, nil
}

// MaskEmail hides most of the local part: "alice@x.org" becomes
// "al***@x.org". Local parts shorter than three characters keep one.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local, domainPart := []rune(email[:at]), email[at:]
	keep := 2
	if len(local) < 3 {
		keep = 1
	}
	return string(local[:keep]) + "***" + domainPart
}
