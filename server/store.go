package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// PendingLogin tracks one in-flight authorization redirect. The
// record is single-use: the callback consumes it exactly once, which
// destroys the CSRF state with it.
type PendingLogin struct {
	ID          string
	Subdomain   string
	State       string
	RedirectURI string
	Scopes      []string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// LoginStore keeps ephemeral pending-login state between the redirect
// to the provider and the callback. Nothing else is persisted; tokens
// and identities belong to the caller.
type LoginStore struct {
	mu     sync.Mutex
	logins map[string]PendingLogin
}

// NewLoginStore constructs the store.
func NewLoginStore() *LoginStore {
	return &LoginStore{logins: make(map[string]PendingLogin)}
}

// NewID generates a random identifier.
func (s *LoginStore) NewID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte("fallbackid"))
	}
	return hex.EncodeToString(buf)
}

// Save stores a pending login.
func (s *LoginStore) Save(p PendingLogin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins[p.ID] = p
}

// Consume fetches and removes a pending login. Expired entries are
// treated as absent.
func (s *LoginStore) Consume(id string) (PendingLogin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.logins[id]
	if !ok {
		return PendingLogin{}, false
	}
	delete(s.logins, id)
	if time.Now().After(p.ExpiresAt) {
		return PendingLogin{}, false
	}
	return p, true
}

// Sweep prunes expired entries and returns how many were removed.
func (s *LoginStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, p := range s.logins {
		if now.After(p.ExpiresAt) {
			delete(s.logins, id)
			removed++
		}
	}
	return removed
}

// StartSweeper prunes expired pending logins until stop is closed.
func (s *LoginStore) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}
