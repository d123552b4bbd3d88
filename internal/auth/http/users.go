package http

import (
	"net/http"

	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/smartplant/auth/pkg/httpx"
)

// UsersHandler serves the per-user administration endpoints.
type UsersHandler struct {
	Users *service.UserService
}

var userNotFound = errorMap{
	service.ErrUserNotFound: authsdk.ErrNotFound.WithDescription("User not found"),
}

// HandleListSessions handles GET /v1/users/{id}/sessions
//
//	@Summary		List active sessions
//	@Description	Lists the unrevoked, unexpired refresh tokens of a user. Users may list their own; admins any.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string						true	"User ID"
//	@Success		200	{object}	authsdk.SessionsResponse	"Active sessions, newest first"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Not the owner"
//	@Router			/v1/users/{id}/sessions [get].
func (h *UsersHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Users.ListSessions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}

	out := make([]authsdk.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, authsdk.SessionInfo{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			IPAddress: s.IPAddress,
			UserAgent: s.UserAgent,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionsResponse{Success: true, Sessions: out})
}

// HandleRevokeSessions handles DELETE /v1/users/{id}/sessions
//
//	@Summary		Revoke all sessions of a user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string						true	"User ID"
//	@Success		200	{object}	authsdk.LogoutAllResponse	"Sessions revoked"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Admin role required"
//	@Failure		404	{object}	authsdk.ErrorResponse		"User not found"
//	@Router			/v1/users/{id}/sessions [delete].
func (h *UsersHandler) HandleRevokeSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.Users.RevokeSessions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.LogoutAllResponse{
		Success:         true,
		Message:         "Sessions revoked",
		RevokedSessions: n,
	})
}

// HandleSetRole handles PUT /v1/users/{id}/role
//
//	@Summary		Change a user's role
//	@Description	Takes effect on the user's next request; the gate reads the role from the user record.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"User ID"
//	@Param			request	body		authsdk.SetRoleRequest	true	"New role"
//	@Success		200		{object}	authsdk.UserResponse	"Updated user"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Unknown role"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Admin role required"
//	@Failure		404		{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/users/{id}/role [put].
func (h *UsersHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SetRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("Request body must be valid JSON").WriteError(w)
		return
	}

	user, err := h.Users.SetRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{Success: true, User: toSDKUser(user)})
}
