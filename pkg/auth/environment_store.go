package auth

import (
	"os"
	"time"
)

const (
	// TokenEnv holds an access token supplied from the environment
	TokenEnv = "FBEXPORT_ACCESS_TOKEN"
	// AccountEnv optionally names the environment account
	AccountEnv = "FBEXPORT_ACCOUNT"
)

// EnvironmentStore is a read-only store over FBEXPORT_ACCESS_TOKEN
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve answers for any name, including the empty one, as long as the
// token variable is set.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv(TokenEnv)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = os.Getenv(AccountEnv)
	}
	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		AccessToken:  token,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(TokenEnv) != ""
}
