package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted, in bytes.
const MinSecretLength = 32

// ErrWeakSecret is returned when the shared secret is shorter than
// MinSecretLength.
var ErrWeakSecret = fmt.Errorf("jwtx: secret must be at least %d bytes", MinSecretLength)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// HMACSigner signs tokens with HS256 using a shared secret.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner creates an HS256 signer. The secret is copied.
func NewHMACSigner(secret []byte) (*HMACSigner, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HMACSigner{secret: append([]byte(nil), secret...)}, nil
}

func (s *HMACSigner) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Validate does a quick sanity check to make sure we actually have a key.
func (s *HMACSigner) Validate() error {
	if len(s.secret) < MinSecretLength {
		return errors.New("jwtx: signer has no usable secret")
	}
	return nil
}
