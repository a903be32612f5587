// Package accounts keeps one photos.Client per named account and writes
// refreshed credentials back to their store.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dvcrn/photos-gateway/internal/credentials"
	"github.com/dvcrn/photos-gateway/internal/photos"
	"github.com/rs/zerolog"
)

// Registry maps account names to clients
type Registry struct {
	store      credentials.Store
	logger     zerolog.Logger
	clientOpts []photos.Option

	mu      sync.RWMutex
	clients map[string]*photos.Client
}

// NewRegistry creates an empty registry. clientOpts are applied to every client it creates.
func NewRegistry(store credentials.Store, logger zerolog.Logger, clientOpts ...photos.Option) *Registry {
	return &Registry{
		store:      store,
		logger:     logger,
		clientOpts: append([]photos.Option{photos.WithLogger(logger)}, clientOpts...),
		clients:    make(map[string]*photos.Client),
	}
}

// Load creates a client for every account in the store. Accounts already
// registered get their credentials replaced.
func (r *Registry) Load() error {
	accounts, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, creds := range accounts {
		r.putLocked(name, creds)
	}
	r.logger.Info().Int("accounts", len(accounts)).Msg("Loaded accounts")
	return nil
}

// Get returns the client registered under name
func (r *Registry) Get(name string) (*photos.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// Names returns the registered account names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put persists creds under name and then registers them. An existing client
// keeps its identity and only has its credentials replaced.
//
// When the store fails the registry is left untouched, except for
// credentials.ErrReadOnly: the credentials are applied in memory and the
// error is still returned so callers know they were not persisted.
func (r *Registry) Put(name string, creds photos.Credentials) (*photos.Client, error) {
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Save(name, creds); err != nil {
		err = fmt.Errorf("failed to persist credentials for %s: %w", name, err)
		if !errors.Is(err, credentials.ErrReadOnly) {
			return nil, err
		}
		return r.putLocked(name, creds), err
	}
	return r.putLocked(name, creds), nil
}

func (r *Registry) putLocked(name string, creds photos.Credentials) *photos.Client {
	if c, ok := r.clients[name]; ok {
		c.SetCredentials(creds)
		return c
	}

	c := photos.NewClient(name, creds, r.clientOpts...)
	c.SetRefreshListener(photos.NewSerializedListener(&persistListener{
		client: c,
		store:  r.store,
		logger: r.logger,
	}))
	r.clients[name] = c
	return c
}

// persistListener saves refreshed credentials. A failed save is logged and
// not returned: the new token is valid in memory either way.
type persistListener struct {
	client *photos.Client
	store  credentials.Store
	logger zerolog.Logger
}

func (p *persistListener) BeforeRefresh(ctx context.Context) error {
	p.logger.Info().Str("account", p.client.Name()).Msg("🔄 Refreshing access token")
	return nil
}

func (p *persistListener) AfterRefresh(ctx context.Context, refreshErr error) error {
	name := p.client.Name()
	if refreshErr != nil {
		p.logger.Error().Err(refreshErr).Str("account", name).Msg("❌ Failed to refresh access token")
		return nil
	}

	if err := p.store.Save(name, p.client.Credentials()); err != nil {
		p.logger.Warn().Err(err).Str("account", name).Msg("⚠️  Refreshed token not persisted")
		return nil
	}

	p.logger.Info().Str("account", name).Msg("✅ Access token refreshed")
	return nil
}
