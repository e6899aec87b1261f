package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"feedengage/pkg/config"
)

// Account is the login for one platform. A platform has at most one
// stored account.
type Account struct {
	Platform     string    `json:"platform"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore persists accounts keyed by platform name
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(platform string) (*Account, error)
	List() ([]*Account, error)
	Delete(platform string) error
	Exists(platform string) bool
}

// Manager reads through its stores in order: system keyring, encrypted
// file, then environment
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager with every store available on this system
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	dir, err := credentialsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the account in the first store that accepts it
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Platform == "" {
		return errors.New("platform is required")
	}
	if account.Username == "" {
		return errors.New("username is required")
	}
	if account.Password == "" {
		return errors.New("password is required")
	}
	account.Platform = strings.ToLower(account.Platform)
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve returns the account for platform from the first store holding it
func (m *Manager) Retrieve(platform string) (*Account, error) {
	platform = strings.ToLower(platform)
	for _, store := range m.stores {
		if account, err := store.Retrieve(platform); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for platform: %s", ErrCredentialsNotFound, platform)
}

// List returns the most recent account per platform, sorted by platform
func (m *Manager) List() ([]*Account, error) {
	byPlatform := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byPlatform[account.Platform]; !ok || account.LastModified.After(existing.LastModified) {
				byPlatform[account.Platform] = account
			}
		}
	}

	result := make([]*Account, 0, len(byPlatform))
	for _, account := range byPlatform {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Platform < result[j].Platform })
	return result, nil
}

// Delete removes the platform's account from every writable store
func (m *Manager) Delete(platform string) error {
	platform = strings.ToLower(platform)
	var (
		deleted bool
		lastErr error
	)
	for _, store := range m.stores {
		if err := store.Delete(platform); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for platform: %s", ErrCredentialsNotFound, platform)
	}
	return nil
}

// DeleteAll removes every stored account
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	var errs []error
	for _, account := range accounts {
		if err := m.Delete(account.Platform); err != nil && !errors.Is(err, ErrCredentialsNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyTo fills in stored credentials for platforms the configuration
// leaves without any. Explicit configuration wins.
func (m *Manager) ApplyTo(cfg *config.Config) {
	accounts, _ := m.List()
	if cfg.Platforms == nil {
		cfg.Platforms = make(map[string]config.PlatformConfig)
	}
	for _, account := range accounts {
		p := cfg.Platforms[account.Platform]
		if p.HasCredentials() {
			continue
		}
		p.Username = account.Username
		p.Password = account.Password
		cfg.Platforms[account.Platform] = p
	}
}

func credentialsDir() (string, error) {
	dir := config.ConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount returns a copy with the password masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	masked := *account
	masked.Password = maskString(account.Password)
	return &masked
}

// maskString keeps the first and last two characters of long secrets
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:2] + "..." + s[len(s)-2:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
