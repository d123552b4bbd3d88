package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/pkg/jwtx"
)

// TokenIssuer mints and parses the two JWT kinds of the service: temporary
// login tokens (password step done, code pending) and access tokens.
type TokenIssuer struct {
	Signer    jwtx.Signer
	Verifier  jwtx.Verifier
	Issuer    string
	AccessTTL time.Duration
	TempTTL   time.Duration
	Now       func() time.Time
}

func NewTokenIssuer(signer jwtx.Signer, verifier jwtx.Verifier, issuer string) *TokenIssuer {
	return &TokenIssuer{
		Signer:    signer,
		Verifier:  verifier,
		Issuer:    issuer,
		AccessTTL: jwtx.DefaultAccessTokenTTL,
		TempTTL:   jwtx.DefaultTempTokenTTL,
		Now:       time.Now,
	}
}

func (i *TokenIssuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// MintTemporary signs a temp=true token for user. It carries no role.
func (i *TokenIssuer) MintTemporary(user domain.User) (string, error) {
	claims := jwtx.NewClaims(i.Issuer, user.ID, user.Email, i.TempTTL, i.now())
	claims.Temp = true
	return i.Signer.Sign(claims)
}

// MintAccess signs an access token for user. The lifetime must come out at
// exactly AccessTTL.
func (i *TokenIssuer) MintAccess(user domain.User) (string, error) {
	claims := jwtx.NewClaims(i.Issuer, user.ID, user.Email, i.AccessTTL, i.now())
	claims.Role = user.Role.String()
	claims.Username = user.Username

	if got := claims.Lifetime(); got != i.AccessTTL {
		return "", fmt.Errorf("access token lifetime %s, want %s", got, i.AccessTTL)
	}
	return i.Signer.Sign(claims)
}

// ParseTemporary accepts only a valid, unexpired temp token. Every failure
// is ErrInvalidToken.
func (i *TokenIssuer) ParseTemporary(raw string) (jwtx.Claims, error) {
	claims, err := i.Verifier.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if !claims.Temp || claims.Subject == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if err := claims.ValidateLifetime(i.TempTTL); err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess verifies raw as an access token: signature and structure,
// expiry, the lifetime ceiling and finally the temp flag.
func (i *TokenIssuer) ParseAccess(raw string) (jwtx.Claims, error) {
	claims, err := i.Verifier.Verify(raw)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return jwtx.Claims{}, ErrTokenExpired
	case err != nil:
		return jwtx.Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}

	if err := claims.ValidateLifetime(i.AccessTTL); err != nil {
		if errors.Is(err, jwtx.ErrLifetime) {
			return jwtx.Claims{}, ErrTokenTampered
		}
		return jwtx.Claims{}, ErrInvalidToken
	}
	if claims.Temp {
		return jwtx.Claims{}, ErrTemporaryToken
	}
	return claims, nil
}
