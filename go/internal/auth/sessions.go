package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Sessions tracks tokens issued after a successful login
type Sessions struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

func NewSessions(ttl time.Duration, clock clockwork.Clock) *Sessions {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sessions{
		ttl:    ttl,
		clock:  clock,
		tokens: make(map[string]time.Time),
	}
}

// Issue creates a new session token
func (s *Sessions) Issue() (token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	token = uuid.NewString()
	expiresAt = s.clock.Now().Add(s.ttl)
	s.tokens[token] = expiresAt
	return token, expiresAt
}

// Valid reports whether token is known and unexpired
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.tokens[token]
	if !ok {
		return false
	}
	if !s.clock.Now().Before(expiresAt) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Revoke forgets token
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

func (s *Sessions) pruneLocked() {
	now := s.clock.Now()
	for token, expiresAt := range s.tokens {
		if !now.Before(expiresAt) {
			delete(s.tokens, token)
		}
	}
}
