package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/smartplant/auth/pkg/httpx"
	"github.com/smartplant/auth/pkg/slogx"
)

// BootstrapTokenHeader carries the one-off setup token.
const BootstrapTokenHeader = "X-Bootstrap-Token"

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first admin user. Only available when a bootstrap token is configured and
//	@Description	only until an admin exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest		true	"Admin account"
//	@Success		201					{object}	authsdk.BootstrapResponse		"Admin created"
//	@Failure		400					{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse			"Missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled (no token configured)"
//	@Failure		409					{object}	authsdk.ErrorResponse			"System already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if h.BootstrapService.Token == "" {
		authsdk.ErrNotFound.WithDescription("Bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	token := r.Header.Get(BootstrapTokenHeader)
	if token == "" {
		authsdk.ErrBootstrapUnauthorized.WithDescription(
			"Bootstrap token is required in X-Bootstrap-Token header").WriteError(w)
		return
	}

	var req authsdk.BootstrapRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("Request body must be valid JSON").WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
			Code:    authsdk.ErrorCodeValidation,
			Message: "validation failed for some fields",
			Details: errs,
		})
		return
	}

	admin, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		AdminUsername: strings.TrimSpace(req.AdminUsername),
		AdminEmail:    strings.TrimSpace(req.AdminEmail),
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			authsdk.ErrBootstrapUnauthorized.WriteError(w)
		case errors.Is(err, service.ErrBootstrapAlready):
			authsdk.ErrAlreadyBootstrapped.WriteError(w)
		case errors.Is(err, service.ErrBootstrapDisabled):
			authsdk.ErrNotFound.WithDescription("Bootstrap endpoint is not enabled").WriteError(w)
		default:
			writeServiceError(w, r, err, nil)
		}
		return
	}

	l.Info("bootstrap complete", "admin_user_id", admin.ID)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{Success: true, User: toSDKUser(admin)})
}
