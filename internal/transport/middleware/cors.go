package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/kerem-kaynak/japanese-lookup/internal/config"
)

// CORS returns middleware that answers preflight requests and sets the
// Access-Control headers for the configured origins.
func CORS(cfg config.CORSConfig) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Origins(),
		AllowedMethods: cfg.Methods(),
		AllowedHeaders: cfg.Headers(),
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         cfg.MaxAge,
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
