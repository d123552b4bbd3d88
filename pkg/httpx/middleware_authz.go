package httpx

import (
	"net/http"
	"slices"

	"github.com/smartplant/auth/pkg/cryptox"
)

// APIKeyHeader carries the shared key of trusted internal services.
const APIKeyHeader = "X-API-Key"

// RequireRole lets the request through only when the caller holds one of
// roles. It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteBearerError(w, "authentication required")
				return
			}
			if !slices.Contains(roles, id.Role) {
				WriteError(w, http.StatusForbidden, "insufficient_role", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnership lets the request through when the path value named param
// equals the caller's user id, or when the caller holds one of bypassRoles.
func RequireOwnership(param string, bypassRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteBearerError(w, "authentication required")
				return
			}
			if slices.Contains(bypassRoles, id.Role) || r.PathValue(param) == id.UserID {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, http.StatusForbidden, "access_denied", "You can only access your own resources")
		})
	}
}

// RequireAPIKey guards service-to-service endpoints. An empty key disables the
// endpoint entirely (404). A missing header is 401, a wrong key 403.
func RequireAPIKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				http.NotFound(w, r)
				return
			}
			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				WriteError(w, http.StatusUnauthorized, "missing_api_key", "API key required")
				return
			}
			if !cryptox.ConstantTimeEqual(got, key) {
				WriteError(w, http.StatusForbidden, "invalid_api_key", "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
