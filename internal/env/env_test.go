package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("PHOTOS_GATEWAY_TEST_VALUE", "42")

	v, ok := Get("PHOTOS_GATEWAY_TEST_VALUE")
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = Get("PHOTOS_GATEWAY_TEST_UNSET")
	assert.False(t, ok)
}
