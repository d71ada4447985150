package restapi

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSMiddleware allows browser clients on any origin to call the search
// endpoints. Preflight requests are answered without reaching the router.
func NewCORSMiddleware() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         86400,
	})
	return c.Handler
}
