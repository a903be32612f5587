package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/dvcrn/photos-gateway/internal/accounts"
	"github.com/dvcrn/photos-gateway/internal/app"
	"github.com/dvcrn/photos-gateway/internal/credentials"
	"github.com/dvcrn/photos-gateway/internal/logger"
	"github.com/dvcrn/photos-gateway/internal/server"
	"github.com/rs/zerolog"
)

func main() {
	useEnv := flag.Bool("use-env-creds", false, "Read a single account from PHOTOS_* environment variables")
	useKeychain := flag.Bool("use-keychain", false, "Store accounts in the macOS keychain")
	credsPath := flag.String("creds-path", credentials.DefaultCredsPath(), "Path to the accounts.json credentials file")
	timeout := flag.Duration("upstream-timeout", 60*time.Second, "Timeout for Library API and token requests")
	flag.Parse()

	log := logger.New()

	var store credentials.Store
	switch {
	case *useEnv:
		store = credentials.NewEnvStore()
		log.Info().Msg("📝 Using environment credentials store")
	case *useKeychain:
		store = credentials.NewKeychainStoreWithLogger(log)
		log.Info().Msg("🔑 Using keychain credentials store")
	default:
		store = credentials.NewFSStore(*credsPath)
		log.Info().Str("path", *credsPath).Msg("📄 Using filesystem credentials store")
		if !credentials.FileExists(*credsPath) {
			log.Warn().Str("path", *credsPath).Msg("⚠️  Credentials file not found, it will be created on the first update")
		}
	}

	srv, registry, err := app.NewServer(store, server.NewHTTPClient(*timeout), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load accounts")
	}

	validateAccountsAtStartup(registry, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "9880"
	}

	log.Info().Str("port", port).Msg("Starting server")
	log.Fatal().Err(http.ListenAndServe(":"+port, srv)).Msg("Server failed to start")
}

func validateAccountsAtStartup(registry *accounts.Registry, log zerolog.Logger) {
	names := registry.Names()
	if len(names) == 0 {
		log.Warn().Msg("⚠️  No accounts configured, add one via POST /admin/accounts/{name}/credentials")
		return
	}

	for _, name := range names {
		client, _ := registry.Get(name)
		creds := client.Credentials()

		event := log.Info()
		if creds.RefreshToken == "" {
			event = log.Warn()
		}
		event.
			Str("account", name).
			Int("token_length", len(creds.AccessToken)).
			Bool("has_refresh_token", creds.RefreshToken != "").
			Str("token_endpoint", creds.TokenEndpoint).
			Msg("✅ Account loaded")
	}
}
