// Package memory implements user.Store with an in-process map.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/coyote/pkg/store/user"
)

// Store is an in-memory user.Store. Contents are lost on restart.
type Store struct {
	mu    sync.RWMutex
	users map[string]*user.User
}

// New creates a store pre-populated with seed.
func New(seed ...*user.User) *Store {
	s := &Store{users: make(map[string]*user.User, len(seed))}
	for _, u := range seed {
		s.users[u.Account] = u.Clone()
	}
	return s
}

func (s *Store) FindByAccount(ctx context.Context, account string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[account]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *Store) Save(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.Account] = u.Clone()
	return nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) Close() error { return nil }
