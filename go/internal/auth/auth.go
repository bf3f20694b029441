// Package auth gates the control surface. The shared secret is a convenience
// gate, not a security boundary; Authenticator lets a stronger scheme replace it.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a secret does not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks a secret presented by the control surface
type Authenticator interface {
	Authenticate(ctx context.Context, secret string) error
}

// StaticSecret compares against a single plain shared secret
type StaticSecret struct {
	secret []byte
}

func NewStaticSecret(secret string) *StaticSecret {
	return &StaticSecret{secret: []byte(secret)}
}

func (s *StaticSecret) Authenticate(_ context.Context, secret string) error {
	if len(s.secret) == 0 {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(s.secret, []byte(secret)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// HashedSecret compares against a bcrypt hash of the shared secret
type HashedSecret struct {
	hash []byte
}

// NewHashedSecret validates hash as a bcrypt hash
func NewHashedSecret(hash string) (*HashedSecret, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &HashedSecret{hash: []byte(hash)}, nil
}

func (h *HashedSecret) Authenticate(_ context.Context, secret string) error {
	err := bcrypt.CompareHashAndPassword(h.hash, []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("compare secret: %w", err)
	}
	return nil
}
