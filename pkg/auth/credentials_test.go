package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feedengage/pkg/config"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Platform: "LinkedIn",
		Username: "jane@example.com",
		Password: "correct horse battery",
	}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("linkedin")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch")
	}
	if retrieved.LastModified.IsZero() {
		t.Error("LastModified should be set on store")
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Platform != "linkedin" {
		t.Errorf("Unexpected accounts: %+v", accounts)
	}

	if err := manager.Delete("linkedin"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("linkedin"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	tests := []struct {
		name    string
		account *Account
	}{
		{"nil", nil},
		{"no platform", &Account{Username: "u", Password: "p"}},
		{"no username", &Account{Platform: "linkedin", Password: "p"}},
		{"no password", &Account{Platform: "linkedin", Username: "u"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := manager.Store(tt.account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestManagerFallsThroughStores(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("keychain locked")
	backup := NewMockStore()
	manager := NewManagerWithStores(failing, backup)

	if err := manager.Store(&Account{Platform: "linkedin", Username: "u", Password: "p"}); err != nil {
		t.Fatalf("Store should fall through to the second store: %v", err)
	}
	if !backup.Exists("linkedin") {
		t.Error("Expected account in backup store")
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	_ = older.Store(&Account{Platform: "linkedin", Username: "old", Password: "p", LastModified: time.Now().Add(-time.Hour)})
	_ = newer.Store(&Account{Platform: "linkedin", Username: "new", Password: "p", LastModified: time.Now()})
	_ = newer.Store(&Account{Platform: "facebook", Username: "fb", Password: "p", LastModified: time.Now()})

	accounts, err := NewManagerWithStores(older, newer).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Platform != "facebook" || accounts[1].Username != "new" {
		t.Errorf("Unexpected order or selection: %+v %+v", accounts[0], accounts[1])
	}
}

func TestManagerDeleteAll(t *testing.T) {
	store := NewMockStore()
	manager := NewManagerWithStores(store)
	_ = manager.Store(&Account{Platform: "linkedin", Username: "a", Password: "p"})
	_ = manager.Store(&Account{Platform: "facebook", Username: "b", Password: "p"})

	if err := manager.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	accounts, _ := manager.List()
	if len(accounts) != 0 {
		t.Errorf("Expected no accounts, got %d", len(accounts))
	}
}

func TestManagerApplyTo(t *testing.T) {
	manager, _ := NewMockManager()
	_ = manager.Store(&Account{Platform: "linkedin", Username: "stored", Password: "secret"})
	_ = manager.Store(&Account{Platform: "facebook", Username: "stored-fb", Password: "secret"})

	cfg := config.DefaultConfig()
	cfg.Platforms["facebook"] = config.PlatformConfig{Username: "explicit", Password: "explicit"}
	manager.ApplyTo(cfg)

	if got := cfg.Platform("linkedin").Username; got != "stored" {
		t.Errorf("Expected stored linkedin username, got %q", got)
	}
	if got := cfg.Platform("facebook").Username; got != "explicit" {
		t.Errorf("Explicit configuration should win, got %q", got)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store := NewEncryptedFileStoreWithPassphrase(path, "test_passphrase_123")

	account := &Account{Platform: "linkedin", Username: "vault_user", Password: "vault_password"}
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("linkedin")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Error("Password mismatch after encryption round trip")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(content, []byte("vault_password")) || bytes.Contains(content, []byte("vault_user")) {
		t.Error("File contains plaintext credentials")
	}

	wrong := NewEncryptedFileStoreWithPassphrase(path, "another passphrase")
	if _, err := wrong.Retrieve("linkedin"); err == nil {
		t.Error("Expected decryption failure with the wrong passphrase")
	}

	if err := store.Delete("linkedin"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected the file to be removed with the last account")
	}
}

func TestEncryptedFileStorePassphraseFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(passphraseEnv, "from-env")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if store.passphrase != "from-env" {
		t.Errorf("Expected passphrase from environment, got %q", store.passphrase)
	}
	if _, err := os.Stat(filepath.Join(dir, ".passphrase")); !os.IsNotExist(err) {
		t.Error("No passphrase file should be written when the environment provides one")
	}
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(passphraseEnv, "")

	first, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if first.passphrase == "" || first.passphrase != second.passphrase {
		t.Error("Expected a generated passphrase reused across opens")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("LINKEDIN_USERNAME", "env_user")
	t.Setenv("LINKEDIN_PASSWORD", "env_pass")
	t.Setenv("FACEBOOK_USERNAME", "")
	t.Setenv("FACEBOOK_PASSWORD", "")
	t.Setenv("INSTAGRAM_USERNAME", "only_user")
	t.Setenv("INSTAGRAM_PASSWORD", "")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("linkedin")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Username != "env_user" || account.Platform != "linkedin" {
		t.Errorf("Unexpected account: %+v", account)
	}
	if store.Exists("instagram") {
		t.Error("A username without password is not a credential")
	}

	accounts, _ := store.List()
	if len(accounts) != 1 {
		t.Errorf("Expected 1 environment account, got %d", len(accounts))
	}

	if err := store.Store(account); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.Delete("linkedin"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Platform: "linkedin", Username: "jane", Password: "a-long-password"}
	masked := SanitizeAccount(account)

	if masked.Password == account.Password {
		t.Error("Password should be masked")
	}
	if masked.Password != "a-...rd" {
		t.Errorf("Unexpected mask %q", masked.Password)
	}
	if masked.Username != account.Username {
		t.Error("Username should not be masked")
	}
	if SanitizeAccount(&Account{Password: "short"}).Password != "********" {
		t.Error("Short secrets should be fully masked")
	}
	if SanitizeAccount(nil) != nil {
		t.Error("nil in, nil out")
	}
}

func TestShowCredentialGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCredentialGuide(&buf, []string{"linkedin"})
	if !strings.Contains(buf.String(), "LINKEDIN_USERNAME and LINKEDIN_PASSWORD") {
		t.Errorf("Guide should list environment variables:\n%s", buf.String())
	}
}
