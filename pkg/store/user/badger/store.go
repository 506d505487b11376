// Package badger implements user.Store on BadgerDB so registered accounts
// survive restarts.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/coyote/pkg/store/user"
)

// Config configures a BadgerDB user store.
type Config struct {
	// DBPath is the directory BadgerDB keeps its files in. It is created if
	// missing.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk. DBPath is ignored.
	InMemory bool `mapstructure:"in_memory"`
}

// Store is a user.Store backed by BadgerDB. Values are JSON-encoded users
// keyed by account (see keys.go).
type Store struct {
	db *badger.DB
}

// New opens (or creates) the database described by cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.DBPath)
	}
	// User records are tiny; compression costs more than it saves.
	opts = opts.WithLoggingLevel(badger.WARNING).WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) FindByAccount(ctx context.Context, account string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u user.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyUser(account))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return user.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &u); err != nil {
				return fmt.Errorf("failed to decode user %s: %w", account, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Save(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	val, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", u.Account, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyUser(u.Account), val); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored users.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixUser)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
