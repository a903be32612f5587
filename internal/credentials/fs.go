package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dvcrn/photos-gateway/internal/photos"
)

// FSStore keeps all accounts in a single JSON file
type FSStore struct {
	Path string

	mu sync.Mutex
}

func NewFSStore(path string) *FSStore {
	return &FSStore{Path: path}
}

// Load returns every account in the file. A missing file yields no accounts.
func (f *FSStore) Load() (map[string]photos.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.accounts(), nil
}

// Save writes creds for name, keeping the other accounts intact
func (f *FSStore) Save(name string, creds photos.Credentials) error {
	if name == "" {
		return fmt.Errorf("account name is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Accounts[name] = creds

	updatedData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal updated credentials: %w", err)
	}

	if err := EnsureParentDir(f.Path); err != nil {
		return err
	}

	// write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".accounts-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set credentials file permissions: %w", err)
	}
	if _, err := tmp.Write(updatedData); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write updated credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write updated credentials file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}

func (f *FSStore) read() (*accountsDocument, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &accountsDocument{Accounts: map[string]photos.Credentials{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return decodeDocument(b)
}
