package credentials

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeychain emulates find/add-generic-password for a single item
type fakeKeychain struct {
	password string
	finds    int
	adds     int
	findErr  error
}

func (f *fakeKeychain) run(args ...string) ([]byte, error) {
	switch args[0] {
	case "find-generic-password":
		f.finds++
		if f.findErr != nil {
			return nil, f.findErr
		}
		return []byte(f.password + "\n"), nil
	case "add-generic-password":
		f.adds++
		for i, arg := range args {
			if arg == "-w" {
				f.password = args[i+1]
			}
		}
		return nil, nil
	}
	return nil, errors.New("unexpected command")
}

func newTestKeychainStore(fake *fakeKeychain) *KeychainStore {
	k := NewKeychainStore()
	k.run = fake.run
	return k
}

func TestKeychainStore(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		k := NewKeychainStore()
		assert.Equal(t, 5*time.Minute, k.cacheTTL)
		assert.NotNil(t, k.run)
	})

	t.Run("save then load", func(t *testing.T) {
		fake := &fakeKeychain{password: `{"accounts":{}}`}
		k := newTestKeychainStore(fake)

		require.NoError(t, k.Save("family", testCredentials("T1")))
		assert.Equal(t, 1, fake.adds)

		// a fresh store reads the item back
		accounts, err := newTestKeychainStore(fake).Load()
		require.NoError(t, err)
		assert.Equal(t, testCredentials("T1"), accounts["family"])
	})

	t.Run("loads are cached", func(t *testing.T) {
		fake := &fakeKeychain{password: `{"accounts":{"family":{"accessToken":"T1"}}}`}
		k := newTestKeychainStore(fake)

		_, err := k.Load()
		require.NoError(t, err)
		accounts, err := k.Load()
		require.NoError(t, err)
		assert.Equal(t, "T1", accounts["family"].AccessToken)
		assert.Equal(t, 1, fake.finds)
	})

	t.Run("find failure", func(t *testing.T) {
		fake := &fakeKeychain{findErr: errors.New("user interaction is not allowed")}
		_, err := newTestKeychainStore(fake).Load()
		assert.Error(t, err)
	})
}
