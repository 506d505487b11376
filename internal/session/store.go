// Package session implements the per-server session registry backing
// cookie authentication.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/coyote/internal/logger"
)

// CookieName is the cookie carrying the session identifier.
const CookieName = "JSESSIONID"

// CookieSource is anything that can look up a request cookie.
// *http1.Request satisfies it.
type CookieSource interface {
	Cookie(name string) (string, bool)
}

// Config controls session expiry.
type Config struct {
	// IdleTimeout evicts sessions not accessed for this long. Zero disables
	// expiry.
	IdleTimeout time.Duration

	// SweepInterval is how often Run scans for expired sessions.
	SweepInterval time.Duration
}

// Store is a concurrency-safe session registry. A Store is owned by one
// server instance and injected into the handlers that need it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTimeout   time.Duration
	sweepInterval time.Duration

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &Store{
		sessions:      make(map[string]*Session),
		idleTimeout:   cfg.IdleTimeout,
		sweepInterval: sweep,
		now:           time.Now,
	}
}

// Create generates a fresh random identifier, registers an empty session
// under it and returns the session.
func (s *Store) Create() (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := newSession(id.String(), s.now())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	logger.Debug("Session created: %s", sess.id)
	return sess, nil
}

// Find returns the session registered under id. An expired session is
// removed and reported as absent.
func (s *Store) Find(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := s.now()
	if s.expired(sess, now) {
		s.Remove(id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// Remove deletes the session registered under id, if any.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of registered sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// GetSession resolves the JSESSIONID cookie of src. When no live session
// matches and create is true a new session is created; otherwise it
// returns nil, which callers treat as not authenticated.
func (s *Store) GetSession(src CookieSource, create bool) (*Session, error) {
	if id, ok := src.Cookie(CookieName); ok {
		if sess, found := s.Find(id); found {
			return sess, nil
		}
	}
	if !create {
		return nil, nil
	}
	return s.Create()
}

// Sweep removes every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	if s.idleTimeout <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every SweepInterval until ctx is done. It
// returns immediately when expiry is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("Expired %d sessions", n)
			}
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.idleTimeout > 0 && sess.idleSince(now) > s.idleTimeout
}
