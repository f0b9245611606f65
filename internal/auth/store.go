package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Store holds bcrypt-hashed passwords keyed by username. It is the
// verification half of the basic-auth consumer pattern: Decode produces
// the pool-backed "user:pass" bytes, Store.Verify checks them against a
// hash that never lives in the pool itself.
type Store struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

// NewStore returns an empty credential store.
func NewStore() *Store {
	return &Store{hashes: make(map[string][]byte)}
}

// Add hashes password with bcrypt and registers it for user, replacing any
// existing credential.
func (s *Store) Add(user, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash credential for %q: %w", user, err)
	}

	s.mu.Lock()
	s.hashes[user] = hash
	s.mu.Unlock()
	return nil
}

// Verify reports whether password matches the hash registered for user.
// It returns false, not an error, for an unknown user — the caller cannot
// distinguish "wrong password" from "no such user" by design.
func (s *Store) Verify(user, password string) bool {
	s.mu.RLock()
	hash, ok := s.hashes[user]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
