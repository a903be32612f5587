//go:build !js || !wasm

// Package env reads runtime configuration from the process environment, or
// from the Workers runtime bindings when built for js/wasm.
package env

import "os"

// Get returns the value of key and whether it was set
func Get(key string) (string, bool) {
	return os.LookupEnv(key)
}
