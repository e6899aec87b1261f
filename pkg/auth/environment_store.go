package auth

import (
	"os"
	"strings"
	"time"

	"feedengage/pkg/config"
)

// EnvironmentStore reads <PLATFORM>_USERNAME and <PLATFORM>_PASSWORD. It
// is read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(platform string) (*Account, error) {
	prefix := strings.ToUpper(platform) + "_"
	username := os.Getenv(prefix + "USERNAME")
	password := os.Getenv(prefix + "PASSWORD")
	if platform == "" || username == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Account{
		Platform: strings.ToLower(platform),
		Username: username,
		Password: password,
		// environment values always count as the newest
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	var accounts []*Account
	for _, name := range config.KnownPlatforms {
		if account, err := e.Retrieve(name); err == nil {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(platform string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(platform string) bool {
	_, err := e.Retrieve(platform)
	return err == nil
}
