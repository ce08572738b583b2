/**
 * @description
 * HTTP middleware for the recurring donation service.
 */
package api

import (
	"net/http"
)

// InternalAuthMiddleware validates an optional internal API key for
// server-to-server calls such as the external scheduler trigger. When no key
// is configured the check is skipped.
func InternalAuthMiddleware(requiredKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiredKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Internal-API-Key")
			if provided == "" || provided != requiredKey {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
