package user

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Store persists users keyed by account name.
//
// Save overwrites any existing user with the same account: registration
// does not enforce uniqueness. Implementations must be safe for concurrent
// use.
type Store interface {
	// FindByAccount returns the user registered under account, or
	// ErrUserNotFound.
	FindByAccount(ctx context.Context, account string) (*User, error)

	// Save stores u under u.Account.
	Save(ctx context.Context, u *User) error

	// Close releases any resources held by the store.
	Close() error
}

// AuthResult is the outcome of an authentication attempt.
type AuthResult int

const (
	// Authenticated means the account exists and the password matched.
	Authenticated AuthResult = iota
	// WrongPassword means the account exists but the password did not match.
	WrongPassword
	// UnknownAccount means no user is registered under the account.
	UnknownAccount
)

func (r AuthResult) String() string {
	switch r {
	case Authenticated:
		return "authenticated"
	case WrongPassword:
		return "wrong_password"
	case UnknownAccount:
		return "unknown_account"
	default:
		return "unknown"
	}
}

// dummyHash is compared against when the account does not exist, so an
// unknown account costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("coyote-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// Authenticate checks account and password against store. The returned
// user is non-nil only when the result is Authenticated. A non-nil error
// means the store itself failed.
//
// Unknown accounts and wrong passwords take the same bcrypt time.
func Authenticate(ctx context.Context, store Store, account, password string) (AuthResult, *User, error) {
	u, err := store.FindByAccount(ctx, account)
	if errors.Is(err, ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return UnknownAccount, nil, nil
	}
	if err != nil {
		return UnknownAccount, nil, err
	}
	if !u.CheckPassword(password) {
		return WrongPassword, nil, nil
	}
	return Authenticated, u, nil
}
