package credentials

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/dvcrn/photos-gateway/internal/photos"
	"github.com/rs/zerolog"
)

const (
	keychainService = "photos-gateway-accounts"
	keychainAccount = "photos-gateway"
)

// commandRunner runs the macOS security tool and returns its stdout
type commandRunner func(args ...string) ([]byte, error)

func runSecurity(args ...string) ([]byte, error) {
	return exec.Command("security", args...).Output()
}

// KeychainStore keeps the accounts document in the macOS login keychain as a
// generic password, caching reads for cacheTTL.
type KeychainStore struct {
	mu       sync.Mutex
	cached   *accountsDocument
	cachedAt time.Time
	cacheTTL time.Duration
	run      commandRunner
	logger   *zerolog.Logger
}

// NewKeychainStore creates a new keychain-backed store
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{
		cacheTTL: 5 * time.Minute,
		run:      runSecurity,
	}
}

// NewKeychainStoreWithLogger creates a new keychain-backed store with logger
func NewKeychainStoreWithLogger(logger zerolog.Logger) *KeychainStore {
	k := NewKeychainStore()
	k.logger = &logger
	return k
}

// Load returns the accounts stored in the keychain, from cache when fresh
func (k *KeychainStore) Load() (map[string]photos.Credentials, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.cached != nil && time.Since(k.cachedAt) < k.cacheTTL {
		return k.cached.accounts(), nil
	}

	doc, err := k.read()
	if err != nil {
		return nil, err
	}
	k.cached = doc
	k.cachedAt = time.Now()
	return doc.accounts(), nil
}

// Save updates one account and rewrites the keychain item
func (k *KeychainStore) Save(name string, creds photos.Credentials) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	doc, err := k.read()
	if err != nil {
		return err
	}
	doc.Accounts[name] = creds

	updatedJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal updated credentials: %w", err)
	}

	// -U updates the item in place when it already exists
	if _, err := k.run("add-generic-password", "-s", keychainService, "-a", keychainAccount, "-w", string(updatedJSON), "-U"); err != nil {
		return fmt.Errorf("failed to update keychain: %w", err)
	}

	k.cached = doc
	k.cachedAt = time.Now()
	if k.logger != nil {
		k.logger.Debug().Str("account", name).Msg("Stored credentials in keychain")
	}
	return nil
}

func (k *KeychainStore) read() (*accountsDocument, error) {
	output, err := k.run("find-generic-password", "-s", keychainService, "-w")
	if err != nil {
		// security exits 44 when the item does not exist yet
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 44 {
			return &accountsDocument{Accounts: map[string]photos.Credentials{}}, nil
		}
		return nil, fmt.Errorf("failed to retrieve password from Keychain: %w", err)
	}

	return decodeDocument([]byte(strings.TrimSpace(string(output))))
}
