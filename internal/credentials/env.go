package credentials

import (
	"fmt"

	"github.com/dvcrn/photos-gateway/internal/env"
	"github.com/dvcrn/photos-gateway/internal/photos"
)

// DefaultAccountName is used when PHOTOS_ACCOUNT_NAME is not set
const DefaultAccountName = "default"

// EnvStore exposes a single account configured through environment variables
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// Load reads the account from the environment. No variables set means no account.
func (e *EnvStore) Load() (map[string]photos.Credentials, error) {
	accessToken, _ := env.Get("PHOTOS_ACCESS_TOKEN")
	refreshToken, _ := env.Get("PHOTOS_REFRESH_TOKEN")
	if accessToken == "" && refreshToken == "" {
		return map[string]photos.Credentials{}, nil
	}

	name, ok := env.Get("PHOTOS_ACCOUNT_NAME")
	if !ok || name == "" {
		name = DefaultAccountName
	}
	tokenEndpoint, ok := env.Get("PHOTOS_TOKEN_ENDPOINT")
	if !ok || tokenEndpoint == "" {
		tokenEndpoint = photos.GoogleTokenURL
	}
	clientID, _ := env.Get("PHOTOS_CLIENT_ID")
	clientSecret, _ := env.Get("PHOTOS_CLIENT_SECRET")

	return map[string]photos.Credentials{
		name: {
			AccessToken:   accessToken,
			TokenEndpoint: tokenEndpoint,
			RefreshToken:  refreshToken,
			ClientID:      clientID,
			ClientSecret:  clientSecret,
		},
	}, nil
}

// Save always fails; refreshed tokens only live in memory
func (e *EnvStore) Save(name string, creds photos.Credentials) error {
	return fmt.Errorf("environment credentials for %q cannot be updated: %w", name, ErrReadOnly)
}
