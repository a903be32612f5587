package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvcrn/photos-gateway/internal/credentials"
	"github.com/dvcrn/photos-gateway/internal/photos"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Accounts is the account lookup the server proxies through
type Accounts interface {
	Get(name string) (*photos.Client, bool)
	Names() []string
	Put(name string, creds photos.Credentials) (*photos.Client, error)
}

type Server struct {
	accounts Accounts
	mux      *http.ServeMux
	logger   zerolog.Logger
}

func New(logger zerolog.Logger, accounts Accounts) *Server {
	s := &Server{
		accounts: accounts,
		mux:      http.NewServeMux(),
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.healthHandler)
	s.mux.HandleFunc("GET /v1/accounts", s.adminMiddleware(s.accountsHandler))
	s.mux.HandleFunc("GET /v1/accounts/{name}/mediaItems/{id}", s.adminMiddleware(s.mediaItemHandler))
	s.mux.HandleFunc("POST /admin/accounts/{name}/credentials", s.adminMiddleware(s.credentialsHandler))
	s.mux.HandleFunc("GET /admin/accounts/{name}/credentials/status", s.adminMiddleware(s.credentialsStatusHandler))
	s.mux.HandleFunc("POST /admin/accounts/{name}/refresh", s.adminMiddleware(s.refreshHandler))
	s.mux.HandleFunc("/", s.notFoundHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.loggingMiddleware(s.mux).ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("Unhandled route")
	http.NotFound(w, r)
}

func (s *Server) accountsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": s.accounts.Names(),
	})
}

// mediaItemHandler handles GET /v1/accounts/{name}/mediaItems/{id}
func (s *Server) mediaItemHandler(w http.ResponseWriter, r *http.Request) {
	client, ok := s.lookupAccount(w, r)
	if !ok {
		return
	}

	mediaItemID := r.PathValue("id")
	item, err := client.GetMediaItem(r.Context(), mediaItemID)
	if err != nil {
		s.writeUpstreamError(w, client.Name(), err)
		return
	}

	s.logger.Debug().
		Str("account", client.Name()).
		Str("media_item_id", item.ID).
		Str("mime_type", item.MimeType).
		Msg("Media item fetched")
	s.writeJSON(w, http.StatusOK, item)
}

// credentialsHandler handles POST /admin/accounts/{name}/credentials
func (s *Server) credentialsHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var creds photos.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse request body")
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if creds.RefreshToken == "" || creds.TokenEndpoint == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		s.writeError(w, http.StatusBadRequest, "Missing required fields: refreshToken, tokenEndpoint, clientId, clientSecret")
		return
	}

	persisted := true
	if _, err := s.accounts.Put(name, creds); err != nil {
		if !errors.Is(err, credentials.ErrReadOnly) {
			s.logger.Error().Err(err).Str("account", name).Msg("Failed to persist credentials")
			s.writeError(w, http.StatusInternalServerError, "Failed to update credentials")
			return
		}
		persisted = false
	}

	s.logger.Info().Str("account", name).Bool("persisted", persisted).Msg("Credentials updated")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Credentials updated successfully",
		"persisted": persisted,
	})
}

// credentialsStatusHandler handles GET /admin/accounts/{name}/credentials/status
func (s *Server) credentialsStatusHandler(w http.ResponseWriter, r *http.Request) {
	client, ok := s.lookupAccount(w, r)
	if !ok {
		return
	}

	creds := client.Credentials()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":            client.Name(),
		"hasAccessToken":     creds.AccessToken != "",
		"accessTokenPreview": tokenPreview(creds.AccessToken),
		"hasRefreshToken":    creds.RefreshToken != "",
		"tokenEndpoint":      creds.TokenEndpoint,
		"clientId":           creds.ClientID,
	})
}

// refreshHandler handles POST /admin/accounts/{name}/refresh
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	client, ok := s.lookupAccount(w, r)
	if !ok {
		return
	}

	if err := client.RefreshCredentials(r.Context()); err != nil {
		s.writeUpstreamError(w, client.Name(), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "refreshed",
		"accessTokenPreview": tokenPreview(client.Credentials().AccessToken),
	})
}

func (s *Server) lookupAccount(w http.ResponseWriter, r *http.Request) (*photos.Client, bool) {
	name := r.PathValue("name")
	client, ok := s.accounts.Get(name)
	if !ok {
		s.logger.Warn().Str("account", name).Msg("Unknown account")
		s.writeError(w, http.StatusNotFound, "Unknown account")
		return nil, false
	}
	return client, true
}

// writeUpstreamError maps client errors to gateway responses: Library API
// statuses pass through, failed refreshes become 401, anything else is a 502.
func (s *Server) writeUpstreamError(w http.ResponseWriter, account string, err error) {
	var statusErr *photos.StatusError
	var retrieveErr *oauth2.RetrieveError

	switch {
	case errors.As(err, &statusErr):
		s.logger.Warn().Err(err).Str("account", account).Int("status", statusErr.StatusCode).Msg("Library API request failed")
		message := statusErr.Body
		if message == "" {
			message = http.StatusText(statusErr.StatusCode)
		}
		s.writeError(w, statusErr.StatusCode, message)
	case errors.As(err, &retrieveErr):
		s.logger.Error().Err(err).Str("account", account).Msg("Token refresh failed")
		s.writeError(w, http.StatusUnauthorized, "Token refresh failed")
	default:
		s.logger.Error().Err(err).Str("account", account).Msg("Upstream request failed")
		s.writeError(w, http.StatusBadGateway, "Upstream request failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// tokenPreview keeps the first and last six characters of long tokens
func tokenPreview(token string) string {
	runes := []rune(token)
	if len(runes) > 12 {
		return string(runes[:6]) + "…" + string(runes[len(runes)-6:])
	}
	if token == "" {
		return ""
	}
	return "…"
}
