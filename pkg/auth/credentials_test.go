package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	manager, store := NewMockManager()

	account := &Account{Name: "personal", AccessToken: "EAAB1234567890abcdef"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := manager.Retrieve("personal")
	require.NoError(t, err)
	assert.Equal(t, "EAAB1234567890abcdef", got.AccessToken)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("personal"))
	_, err = manager.Retrieve("personal")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, store.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Account{AccessToken: "token"}))
	assert.Error(t, manager.Store(&Account{Name: "empty"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(&Account{Name: "work", AccessToken: "EAAWORKTOKEN123"}))

	assert.True(t, working.Exists("work"))
	assert.False(t, broken.Exists("work"))
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()

	require.NoError(t, older.Store(&Account{Name: "a", AccessToken: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Account{Name: "a", AccessToken: "new", LastModified: now}))
	require.NoError(t, newer.Store(&Account{Name: "b", AccessToken: "other", LastModified: now.Add(-2 * time.Hour)}))

	accounts, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a", accounts[0].Name)
	assert.Equal(t, "new", accounts[0].AccessToken)
	assert.Equal(t, "b", accounts[1].Name)
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv(TokenEnv, "EAAENVTOKEN999")
	t.Setenv(AccountEnv, "")

	mock := NewMockStore()
	require.NoError(t, mock.Store(&Account{Name: "stored", AccessToken: "EAASTORED", LastModified: time.Now()}))

	manager := NewManagerWithStores(mock, NewEnvironmentStore())
	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "EAAENVTOKEN999", account.AccessToken)
	assert.Equal(t, "default", account.Name)
}

func TestRetrieveDefaultWithoutAccounts(t *testing.T) {
	t.Setenv(TokenEnv, "")
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())

	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestDeleteUnknownAccount(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	err := manager.Delete("ghost")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(PassphraseEnv, "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "nested", "tokens.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	account := &Account{Name: "enc", AccessToken: "EAASECRETTOKENVALUE", UserID: "100"}
	require.NoError(t, store.Store(account))

	got, err := store.Retrieve("enc")
	require.NoError(t, err)
	assert.Equal(t, account.AccessToken, got.AccessToken)
	assert.Equal(t, "100", got.UserID)
	assert.True(t, store.Exists("enc"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("EAASECRETTOKENVALUE")))

	require.NoError(t, store.Store(&Account{Name: "second", AccessToken: "EAASECOND"}))
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("enc"))
	require.NoError(t, store.Delete("second"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Delete("enc"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")

	t.Setenv(PassphraseEnv, "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "x", AccessToken: "EAAX"}))

	t.Setenv(PassphraseEnv, "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(TokenEnv, "EAAENV")
	t.Setenv(AccountEnv, "ci")

	store := NewEnvironmentStore()
	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "ci", account.Name)
	assert.Equal(t, "EAAENV", account.AccessToken)
	assert.True(t, store.Exists("anything"))

	assert.ErrorIs(t, store.Store(&Account{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("ci"), ErrStoreUnavailable)

	t.Setenv(TokenEnv, "")
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "me", AccessToken: "EAAB1234567890abcdef"}
	clean := SanitizeAccount(account)

	assert.Equal(t, "EAAB...cdef", clean.AccessToken)
	assert.Equal(t, "me", clean.Name)
	assert.Equal(t, "EAAB1234567890abcdef", account.AccessToken)
	assert.Equal(t, "********", MaskToken("short"))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()
	store.ListError = errors.New("injected")

	_, err := store.List()
	assert.EqualError(t, err, "injected")
}

func TestTokenGuideListsScopes(t *testing.T) {
	var buf bytes.Buffer
	WriteTokenGuide(&buf, []string{"read_stream", "user_photos"})
	assert.Contains(t, buf.String(), "read_stream")
	assert.Contains(t, buf.String(), TokenEnv)
}
