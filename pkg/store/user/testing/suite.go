// Package testing provides a conformance suite for user.Store
// implementations.
package testing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/coyote/pkg/store/user"
)

// StoreTestSuite tests the user.Store contract. NewStore must return a
// fresh, empty store for every call.
type StoreTestSuite struct {
	NewStore func(t *testing.T) user.Store
}

// Run executes every test in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("FindByAccount_NotFound", suite.TestFindByAccount_NotFound)
	test.Run("Save_Then_Find", suite.TestSaveThenFind)
	test.Run("Save_Overwrites", suite.TestSaveOverwrites)
	test.Run("Save_Isolated", suite.TestSaveIsolated)
	test.Run("Authenticate", suite.TestAuthenticate)
	test.Run("Concurrent", suite.TestConcurrent)
}

func (suite *StoreTestSuite) newStore(test *testing.T) user.Store {
	store := suite.NewStore(test)
	test.Cleanup(func() { _ = store.Close() })
	return store
}

func mustUser(test *testing.T, account, password, email string) *user.User {
	test.Helper()
	u, err := user.New(account, password, email)
	require.NoError(test, err)
	return u
}

func (suite *StoreTestSuite) TestFindByAccount_NotFound(test *testing.T) {
	store := suite.newStore(test)

	_, err := store.FindByAccount(context.Background(), "nobody")
	assert.ErrorIs(test, err, user.ErrUserNotFound)
}

func (suite *StoreTestSuite) TestSaveThenFind(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()

	u := mustUser(test, "gugu", "password", "hkkang@woowahan.com")
	require.NoError(test, store.Save(ctx, u))

	got, err := store.FindByAccount(ctx, "gugu")
	require.NoError(test, err)
	assert.Equal(test, u.ID, got.ID)
	assert.Equal(test, u.Email, got.Email)
	assert.True(test, got.CheckPassword("password"))
}

// TestSaveOverwrites verifies that registering an existing account replaces
// the stored user.
func (suite *StoreTestSuite) TestSaveOverwrites(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()

	require.NoError(test, store.Save(ctx, mustUser(test, "gugu", "first", "one@example.com")))
	require.NoError(test, store.Save(ctx, mustUser(test, "gugu", "second", "two@example.com")))

	got, err := store.FindByAccount(ctx, "gugu")
	require.NoError(test, err)
	assert.Equal(test, "two@example.com", got.Email)
	assert.True(test, got.CheckPassword("second"))
	assert.False(test, got.CheckPassword("first"))
}

// TestSaveIsolated verifies that callers cannot mutate stored state through
// the pointers they pass in or get back.
func (suite *StoreTestSuite) TestSaveIsolated(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()

	u := mustUser(test, "gugu", "password", "before@example.com")
	require.NoError(test, store.Save(ctx, u))
	u.Email = "after@example.com"

	got, err := store.FindByAccount(ctx, "gugu")
	require.NoError(test, err)
	assert.Equal(test, "before@example.com", got.Email)

	got.Email = "mutated@example.com"
	again, err := store.FindByAccount(ctx, "gugu")
	require.NoError(test, err)
	assert.Equal(test, "before@example.com", again.Email)
}

func (suite *StoreTestSuite) TestAuthenticate(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	require.NoError(test, store.Save(ctx, mustUser(test, "gugu", "password", "")))

	tests := []struct {
		name     string
		account  string
		password string
		want     user.AuthResult
	}{
		{"valid", "gugu", "password", user.Authenticated},
		{"wrong password", "gugu", "nope", user.WrongPassword},
		{"unknown account", "ghost", "password", user.UnknownAccount},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(test *testing.T) {
			res, u, err := user.Authenticate(ctx, store, tt.account, tt.password)
			require.NoError(test, err)
			assert.Equal(test, tt.want, res)
			if tt.want == user.Authenticated {
				require.NotNil(test, u)
				assert.Equal(test, tt.account, u.Account)
			} else {
				assert.Nil(test, u)
			}
		})
	}
}

func (suite *StoreTestSuite) TestConcurrent(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()

	// One hash shared by every goroutine keeps bcrypt out of the hot loop.
	base := mustUser(test, "seed", "password", "")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				u := base.Clone()
				u.Account = "user" + string(rune('a'+i))
				if err := store.Save(ctx, u); err != nil {
					test.Errorf("Save: %v", err)
					return
				}
				if _, err := store.FindByAccount(ctx, u.Account); err != nil {
					test.Errorf("FindByAccount(%s): %v", u.Account, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
