package session

import (
	"sync"
	"time"
)

// AttributeUser is the attribute key holding the authenticated user.
const AttributeUser = "user"

// Session is server-side state keyed by an opaque identifier delivered to
// the client in the JSESSIONID cookie. Attribute access is safe for
// concurrent use.
type Session struct {
	id string

	mu         sync.RWMutex
	attributes map[string]any
	lastAccess time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:         id,
		attributes: make(map[string]any),
		lastAccess: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Attribute returns the value stored under key.
func (s *Session) Attribute(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attributes[key]
	return v, ok
}

// SetAttribute stores value under key, replacing any previous value.
func (s *Session) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[key] = value
}

// RemoveAttribute deletes key.
func (s *Session) RemoveAttribute(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attributes, key)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastAccess)
}
