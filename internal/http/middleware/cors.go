package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// SessionHeader carries a freshly signed session token on sign-in responses.
const SessionHeader = "X-Session-Token"

// CORS lets browser clients on the given origins call the API and read the
// session header.
func CORS(origins []string, credentials bool) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id", SessionHeader},
		AllowCredentials: credentials,
		MaxAge:           300,
	})
}
