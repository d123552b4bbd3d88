package http

import (
	"net/http"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/pkg/httpx"
)

const (
	AccessTokenCookie  = httpx.AccessTokenCookie
	RefreshTokenCookie = "refreshToken"

	// The refresh cookie is only sent to the auth endpoints that consume it.
	refreshCookiePath = "/v1/auth"
)

// Cookies mirrors token pairs into HttpOnly cookies for browser clients.
type Cookies struct {
	Secure     bool
	RefreshTTL time.Duration
}

func (c Cookies) Set(w http.ResponseWriter, res domain.AuthResult) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, res.AccessToken, "/", res.ExpiresIn))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, res.RefreshToken, refreshCookiePath, c.RefreshTTL))
}

func (c Cookies) Clear(w http.ResponseWriter) {
	access := c.cookie(AccessTokenCookie, "", "/", 0)
	access.MaxAge = -1
	refresh := c.cookie(RefreshTokenCookie, "", refreshCookiePath, 0)
	refresh.MaxAge = -1
	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}

func (c Cookies) cookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// refreshTokenFrom prefers the body value and falls back to the cookie.
func refreshTokenFrom(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	if ck, err := r.Cookie(RefreshTokenCookie); err == nil {
		return ck.Value
	}
	return ""
}
