package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcrn/photos-gateway/internal/photos"
)

func TestEnvStore(t *testing.T) {
	t.Run("no variables means no accounts", func(t *testing.T) {
		t.Setenv("PHOTOS_ACCESS_TOKEN", "")
		t.Setenv("PHOTOS_REFRESH_TOKEN", "")

		accounts, err := NewEnvStore().Load()
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("defaults name and token endpoint", func(t *testing.T) {
		t.Setenv("PHOTOS_ACCOUNT_NAME", "")
		t.Setenv("PHOTOS_TOKEN_ENDPOINT", "")
		t.Setenv("PHOTOS_ACCESS_TOKEN", "T1")
		t.Setenv("PHOTOS_REFRESH_TOKEN", "R1")
		t.Setenv("PHOTOS_CLIENT_ID", "id")
		t.Setenv("PHOTOS_CLIENT_SECRET", "secret")

		accounts, err := NewEnvStore().Load()
		require.NoError(t, err)
		assert.Equal(t, map[string]photos.Credentials{
			DefaultAccountName: {
				AccessToken:   "T1",
				TokenEndpoint: photos.GoogleTokenURL,
				RefreshToken:  "R1",
				ClientID:      "id",
				ClientSecret:  "secret",
			},
		}, accounts)
	})

	t.Run("named account", func(t *testing.T) {
		t.Setenv("PHOTOS_ACCOUNT_NAME", "family")
		t.Setenv("PHOTOS_TOKEN_ENDPOINT", "https://auth.example.com/token")
		t.Setenv("PHOTOS_ACCESS_TOKEN", "T1")
		t.Setenv("PHOTOS_REFRESH_TOKEN", "R1")

		accounts, err := NewEnvStore().Load()
		require.NoError(t, err)
		require.Contains(t, accounts, "family")
		assert.Equal(t, "https://auth.example.com/token", accounts["family"].TokenEndpoint)
	})

	t.Run("save is rejected", func(t *testing.T) {
		err := NewEnvStore().Save("family", photos.Credentials{AccessToken: "T2"})
		assert.ErrorIs(t, err, ErrReadOnly)
	})
}
