//go:build js && wasm

package env

import "github.com/syumai/workers/cloudflare"

// Get returns the value of a Worker variable or secret. The runtime does not
// distinguish unset from empty.
func Get(key string) (string, bool) {
	v := cloudflare.Getenv(key)
	return v, v != ""
}
