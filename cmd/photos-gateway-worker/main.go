//go:build js && wasm

package main

import (
	"net/http"

	"github.com/dvcrn/photos-gateway/internal/app"
	"github.com/dvcrn/photos-gateway/internal/credentials"
	"github.com/dvcrn/photos-gateway/internal/logger"
	"github.com/syumai/workers"
)

func main() {
	log := logger.New()

	log.Info().Msg("📦 Using Cloudflare KV credentials store")
	kvStore, err := credentials.NewCloudflareKVStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloudflare KV store")
	}

	// Workers enforce their own request limits, so no client timeout here
	srv, _, err := app.NewServer(kvStore, &http.Client{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load accounts")
	}

	workers.Serve(srv)
}
