package http

import (
	"net/http"

	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/smartplant/auth/pkg/httpx"
)

// IntrospectHandler lets a trusted internal service (the model training
// service) ask whether a user's access token would pass the gate.
type IntrospectHandler struct {
	Authenticator httpx.Authenticator
}

// ServeHTTP godoc
//
//	@Summary		Introspect an access token
//	@Description	Runs the request gate on a token on behalf of an internal service. Inactive tokens are
//	@Description	reported with active=false and the gate's reason; this is not an error.
//	@Tags			Service
//	@Accept			json
//	@Produce		json
//	@Param			X-API-Key	header		string						true	"Service API key"
//	@Param			request		body		authsdk.IntrospectRequest	true	"Token to check"
//	@Success		200			{object}	authsdk.IntrospectResponse	"Gate result"
//	@Failure		400			{object}	authsdk.ErrorResponse		"Token missing"
//	@Failure		401			{object}	authsdk.ErrorResponse		"API key missing"
//	@Failure		403			{object}	authsdk.ErrorResponse		"API key wrong"
//	@Failure		404			{string}	string						"Endpoint disabled"
//	@Router			/v1/service/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.IntrospectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Token == "" {
		authsdk.ErrInvalidRequest.WithDescription("token is required").WriteError(w)
		return
	}

	id, err := h.Authenticator.Authenticate(r.Context(), req.Token)
	if err != nil {
		httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectResponse{Active: false, Error: err.Error()})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectResponse{
		Active: true,
		User: &authsdk.User{
			ID:       id.UserID,
			Username: id.Username,
			Email:    id.Email,
			Role:     id.Role,
		},
	})
}
