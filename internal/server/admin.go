package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dvcrn/photos-gateway/internal/env"
)

// adminMiddleware checks for valid admin API key from either
// 'Authorization: Bearer <key>' or 'X-API-Key: <key>' headers.
func (s *Server) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminKey, ok := env.Get("ADMIN_API_KEY")
		if !ok || adminKey == "" {
			s.logger.Error().Msg("ADMIN_API_KEY environment variable not set")
			s.writeError(w, http.StatusInternalServerError, "Admin API not configured")
			return
		}

		providedToken, reason := extractAdminToken(r)
		if reason != "" {
			s.rejectAdmin(w, r, reason)
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedToken), []byte(adminKey)) != 1 {
			s.rejectAdmin(w, r, "Invalid admin API key provided")
			return
		}

		next(w, r)
	}
}

// extractAdminToken returns the presented key, or a reason when none is usable
func extractAdminToken(r *http.Request) (string, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expect "Bearer <token>" format, case-insensitive
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "Invalid Authorization header format for admin endpoint"
		}
		return parts[1], ""
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, ""
	}
	return "", "Missing required Authorization or X-API-Key header for admin endpoint"
}

func (s *Server) rejectAdmin(w http.ResponseWriter, r *http.Request, reason string) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Msg(reason)
	s.writeError(w, http.StatusUnauthorized, "Unauthorized")
}
