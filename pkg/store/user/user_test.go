package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNew(t *testing.T) {
	u, err := New("gugu", "password", "hkkang@woowahan.com")
	require.NoError(t, err)

	assert.Equal(t, "gugu", u.Account)
	assert.Equal(t, "hkkang@woowahan.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, []byte("password"), u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestNewRejectsMissingFields(t *testing.T) {
	_, err := New("", "password", "a@b.c")
	assert.ErrorIs(t, err, ErrInvalidUser)

	_, err = New("gugu", "", "a@b.c")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestCheckPassword(t *testing.T) {
	u, err := New("gugu", "password", "")
	require.NoError(t, err)

	assert.True(t, u.CheckPassword("password"))
	assert.False(t, u.CheckPassword("Password"))
	assert.False(t, u.CheckPassword(""))
}

func TestClone(t *testing.T) {
	u, err := New("gugu", "password", "")
	require.NoError(t, err)

	c := u.Clone()
	c.PasswordHash[0] ^= 0xff
	c.Email = "changed"

	assert.True(t, u.CheckPassword("password"))
	assert.Empty(t, u.Email)
}

func TestAuthResultString(t *testing.T) {
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "wrong_password", WrongPassword.String())
	assert.Equal(t, "unknown_account", UnknownAccount.String())
}

func TestDummyHashMatchesUserCost(t *testing.T) {
	u, err := New("gugu", "password", "")
	require.NoError(t, err)

	want, err := bcrypt.Cost(u.PasswordHash)
	require.NoError(t, err)
	got, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
