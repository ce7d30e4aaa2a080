package admin

import (
	"net/http"
	"strings"

	"github.com/maxpert/mylite/cfg"
)

// AuthMiddleware checks the admin secret when one is configured
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := cfg.Config.Prometheus.AdminSecret
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get("X-Mylite-Secret")
		if provided == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, http.StatusUnauthorized, "missing authentication header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeErrorResponse(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}
			provided = parts[1]
		}

		if provided != secret {
			writeErrorResponse(w, http.StatusUnauthorized, "invalid secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}
