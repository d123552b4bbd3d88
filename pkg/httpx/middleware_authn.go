package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/smartplant/auth/pkg/slogx"
)

// AccessTokenCookie is the cookie the access token is mirrored into for
// browser clients.
const AccessTokenCookie = "accessToken"

// Authenticator turns a raw access token into an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Identity, error)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the access token cookie. The header wins when both are set.
func TokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
			return strings.TrimSpace(authz[7:])
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// AuthnMiddleware rejects requests without a token the Authenticator accepts.
// The error text is returned to the client as the bearer error description,
// so authenticators must only return client-safe errors.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := TokenFromRequest(r)
			if raw == "" {
				WriteBearerError(w, "authentication required, no token provided")
				return
			}

			id, err := a.Authenticate(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("authentication rejected", "err", err)
				WriteBearerError(w, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(ctx, id)))
		})
	}
}

// OptionalAuthn attaches an Identity when a valid token is present and lets
// every request through either way.
func OptionalAuthn(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw := TokenFromRequest(r); raw != "" {
				if id, err := a.Authenticate(ctx, raw); err == nil {
					ctx = ContextWithIdentity(ctx, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteBearerError writes an RFC 6750 invalid_token response.
func WriteBearerError(w http.ResponseWriter, desc string) {
	desc = strings.ReplaceAll(desc, `"`, "'")
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
