package middleware

import (
	"net/http"

	"conf-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS builds the CORS wrapper from configured origins. An empty origin
// list allows any origin, which is only acceptable in development.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}
