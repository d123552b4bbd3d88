package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrLifetime     = errors.New("jwtx: token lifetime exceeds maximum")
)

// HMACVerifier validates HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewHMACVerifier creates an HS256 verifier. An empty issuer disables the
// issuer check.
func NewHMACVerifier(secret []byte, issuer string) (*HMACVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HMACVerifier{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of v that reads the current time from now.
func (v *HMACVerifier) WithClock(now func() time.Time) *HMACVerifier {
	cp := *v
	cp.now = now
	return &cp
}

// Verify checks signature, algorithm, exp and iat presence, expiry and
// issuer. An expired token yields ErrExpired; every other failure yields an
// error wrapping ErrInvalidToken (or ErrIssuer).
func (v *HMACVerifier) Verify(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.IssuedAt == nil {
		return Claims{}, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
