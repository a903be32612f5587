package app

import (
	"fmt"
	"net/http"

	"github.com/dvcrn/photos-gateway/internal/accounts"
	"github.com/dvcrn/photos-gateway/internal/credentials"
	"github.com/dvcrn/photos-gateway/internal/env"
	"github.com/dvcrn/photos-gateway/internal/photos"
	"github.com/dvcrn/photos-gateway/internal/server"
	"github.com/rs/zerolog"
)

// NewServer loads every account from store and returns the gateway serving them.
// PHOTOS_API_BASE_URL overrides the Library API host.
func NewServer(store credentials.Store, httpClient *http.Client, logger zerolog.Logger) (*server.Server, *accounts.Registry, error) {
	opts := []photos.Option{photos.WithHTTPClient(httpClient)}
	if baseURL, ok := env.Get("PHOTOS_API_BASE_URL"); ok && baseURL != "" {
		opts = append(opts, photos.WithBaseURL(baseURL))
	}

	registry := accounts.NewRegistry(store, logger, opts...)
	if err := registry.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	return server.New(logger, registry), registry, nil
}
