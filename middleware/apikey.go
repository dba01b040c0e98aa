package middleware

import (
	"crypto/subtle"
	"net/http"

	"lyricsync-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const APIKeyHeader = "X-API-Key"

// RequireAPIKey guards the store administration routes (backup, restore).
// When required is false every request passes. When required is true and no
// key is configured, every request is refused: a missing key must not open
// the admin routes.
func RequireAPIKey(apiKey string, required bool) func(http.Handler) http.Handler {
	if required && apiKey == "" {
		log.Warnf("%s API key required but API_KEY is empty, admin routes are disabled", logcolors.LogAPIKey)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			switch {
			case apiKey == "":
				writeAuthError(w, http.StatusServiceUnavailable, "Admin routes disabled", "No API key is configured on the server")
			case provided == "":
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), r.URL.Path)
				writeAuthError(w, http.StatusUnauthorized, "API key required", "Provide a valid API key via X-API-Key header")
			case subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1:
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), r.URL.Path)
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key", "The provided API key is not valid")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + errMsg + `","message":"` + message + `"}`))
}
