//go:build js && wasm

package credentials

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dvcrn/photos-gateway/internal/photos"
	"github.com/syumai/workers/cloudflare/kv"
)

const (
	kvNamespaceBinding = "photos_gateway_kv"
	kvAccountsKey      = "photos_accounts"
)

// CloudflareKVStore keeps the accounts document in Cloudflare KV
type CloudflareKVStore struct {
	mu      sync.Mutex
	kvStore *kv.Namespace
}

// NewCloudflareKVStore binds to the namespace configured in wrangler.toml
func NewCloudflareKVStore() (*CloudflareKVStore, error) {
	kvStore, err := kv.NewNamespace(kvNamespaceBinding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &CloudflareKVStore{kvStore: kvStore}, nil
}

func (c *CloudflareKVStore) Load() (map[string]photos.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.getDocument()
	if err != nil {
		return nil, err
	}
	return doc.accounts(), nil
}

func (c *CloudflareKVStore) Save(name string, creds photos.Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.getDocument()
	if err != nil {
		return err
	}
	doc.Accounts[name] = creds

	credsJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := c.kvStore.PutString(kvAccountsKey, string(credsJSON), nil); err != nil {
		return fmt.Errorf("failed to store credentials in KV: %w", err)
	}
	return nil
}

// getDocument returns an empty document when the key has never been written
func (c *CloudflareKVStore) getDocument() (*accountsDocument, error) {
	credsJSON, err := c.kvStore.GetString(kvAccountsKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials from KV: %w", err)
	}
	if credsJSON == "" {
		return &accountsDocument{Accounts: map[string]photos.Credentials{}}, nil
	}
	return decodeDocument([]byte(credsJSON))
}
