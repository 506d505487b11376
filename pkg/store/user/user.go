// Package user defines the account model and the persistence contract used
// by the login and registration handlers.
package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by Store.FindByAccount when no user has the
// requested account name.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidUser is returned when a user is missing a required field.
var ErrInvalidUser = errors.New("invalid user")

// User is a registered account. The password is only ever held as a bcrypt
// hash.
type User struct {
	// ID is a random identifier assigned at creation.
	ID string `json:"id"`

	// Account is the login name. Stores key users by this field.
	Account string `json:"account"`

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash []byte `json:"password_hash"`

	Email string `json:"email"`

	CreatedAt time.Time `json:"created_at"`
}

// New builds a user with a freshly hashed password.
func New(account, password, email string) (*User, error) {
	if account == "" || password == "" {
		return nil, fmt.Errorf("%w: account and password are required", ErrInvalidUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &User{
		ID:           uuid.NewString(),
		Account:      account,
		PasswordHash: hash,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(plain)) == nil
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (u *User) String() string {
	return fmt.Sprintf("User{account=%s, email=%s}", u.Account, u.Email)
}
