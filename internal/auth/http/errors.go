package http

import (
	"errors"
	"net/http"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/smartplant/auth/pkg/slogx"
)

// errorMap pairs a service sentinel with the response it becomes.
type errorMap map[error]*authsdk.APIError

// defaultErrors covers the sentinels every handler can meet. Handlers pass
// overrides where the wording differs per endpoint.
var defaultErrors = errorMap{
	service.ErrInvalidRequest:      authsdk.ErrInvalidRequest,
	service.ErrInvalidCredentials:  authsdk.ErrInvalidCredentials,
	service.ErrRateLimited:         authsdk.ErrRateLimited,
	service.ErrDeliveryFailed:      authsdk.ErrDeliveryFailed,
	service.ErrInvalidToken:        authsdk.ErrInvalidToken,
	service.ErrInvalidCode:         authsdk.ErrInvalidCode,
	service.ErrTooManyAttempts:     authsdk.ErrTooManyAttempts,
	service.ErrUserNotFound:        authsdk.ErrUserNotFound,
	service.ErrInvalidRefreshToken: authsdk.ErrInvalidRefreshToken,
	service.ErrEmailTaken:          authsdk.ErrEmailTaken,
	service.ErrInvalidRole:         authsdk.ErrInvalidRole,
}

// writeServiceError answers with the mapped APIError. Unmapped errors are
// logged and become a generic 500 so storage details never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, overrides errorMap) {
	for sentinel, apiErr := range overrides {
		if errors.Is(err, sentinel) {
			apiErr.WriteError(w)
			return
		}
	}
	for sentinel, apiErr := range defaultErrors {
		if errors.Is(err, sentinel) {
			apiErr.WriteError(w)
			return
		}
	}
	slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	authsdk.ErrServerError.WriteError(w)
}

func toSDKUser(u domain.User) authsdk.User {
	return authsdk.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}
