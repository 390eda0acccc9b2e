package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS configures cross-origin access for the browser game client. Origins
// come from config (ALLOWED_ORIGINS / FRONTEND_URL); credentials are
// allowed because the session cookie rides along on check-auth/logout.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
