package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvcrn/photos-gateway/internal/photos"
)

// ErrReadOnly is returned by stores that cannot persist credentials
var ErrReadOnly = errors.New("credentials store is read-only")

// Store loads and persists per-account credentials
type Store interface {
	Load() (map[string]photos.Credentials, error)
	Save(name string, creds photos.Credentials) error
}

// accountsDocument is the JSON layout shared by the file, keychain and KV stores
type accountsDocument struct {
	Accounts map[string]photos.Credentials `json:"accounts"`
}

func decodeDocument(data []byte) (*accountsDocument, error) {
	var doc accountsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string]photos.Credentials{}
	}
	return &doc, nil
}

func (d *accountsDocument) accounts() map[string]photos.Credentials {
	out := make(map[string]photos.Credentials, len(d.Accounts))
	for name, creds := range d.Accounts {
		out[name] = creds
	}
	return out
}
