package http

import (
	"net/http"
	"strings"

	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/smartplant/auth/pkg/httpx"
)

// AuthHandler serves the login, token and logout endpoints under /v1/auth.
type AuthHandler struct {
	Sessions *service.SessionService
	Users    *service.UserService
	Cookies  Cookies
	ClientIP httpx.KeyExtractor
}

func (h *AuthHandler) clientMeta(r *http.Request) (ip, ua string) {
	if h.ClientIP == nil {
		return httpx.IPKeyExtractor(r), r.UserAgent()
	}
	return h.ClientIP(r), r.UserAgent()
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register an account
//	@Description	Creates a user with the public role. Logging in still requires the emailed code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Account details"
//	@Success		201		{object}	authsdk.RegisterResponse	"Created user"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Missing fields or email already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many requests"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("Request body must be valid JSON").WriteError(w)
		return
	}

	user, err := h.Users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, errorMap{
			service.ErrInvalidRequest: authsdk.ErrInvalidRequest.WithDescription(
				"Username, a valid email and a password of at least 8 characters are required"),
		})
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		Success: true,
		Message: "User registered successfully",
		User:    toSDKUser(user),
	})
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Start a login
//	@Description	Checks the password and emails a six digit code. Never returns an access token;
//	@Description	the temporary token must be exchanged together with the code at /v1/auth/verify-mfa.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Code sent"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Email and password are required"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many codes issued"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Code could not be queued"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	missing := authsdk.ErrInvalidRequest.WithDescription("Email and password are required")

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		missing.WriteError(w)
		return
	}

	ip, ua := h.clientMeta(r)
	challenge, err := h.Sessions.Login(r.Context(), req.Email, req.Password, ip, ua)
	if err != nil {
		writeServiceError(w, r, err, errorMap{service.ErrInvalidRequest: missing})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success:     true,
		Message:     "Verification code sent to your email",
		RequiresMFA: true,
		TempToken:   challenge.TempToken,
		Email:       challenge.MaskedEmail,
	})
}

// HandleVerifyMFA handles POST /v1/auth/verify-mfa
//
//	@Summary		Finish a login
//	@Description	Exchanges the temporary token and the emailed code for an access and refresh token.
//	@Description	Both are also set as HttpOnly cookies.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyMFARequest	true	"Temporary token and code"
//	@Success		200		{object}	authsdk.AuthResponse		"Login successful"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Verification code and token are required"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid token, code or user"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Code withdrawn after too many wrong guesses, or IP limit reached"
//	@Router			/v1/auth/verify-mfa [post].
func (h *AuthHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	missing := authsdk.ErrInvalidRequest.WithDescription("Verification code and token are required")

	var req authsdk.VerifyMFARequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		missing.WriteError(w)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" || req.TempToken == "" {
		missing.WriteError(w)
		return
	}

	ip, ua := h.clientMeta(r)
	res, err := h.Sessions.VerifyMFA(r.Context(), req.TempToken, req.Code, ip, ua)
	if err != nil {
		writeServiceError(w, r, err, errorMap{service.ErrInvalidRequest: missing})
		return
	}

	h.Cookies.Set(w, res)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Success:      true,
		Message:      "Login successful",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int(res.ExpiresIn.Seconds()),
		User:         toSDKUser(res.User),
	})
}

// HandleResendMFA handles POST /v1/auth/resend-mfa
//
//	@Summary		Send a new code
//	@Description	Issues a fresh code for a pending login. Earlier codes stop working. Counts towards the
//	@Description	limit of five codes per fifteen minutes.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResendMFARequest	true	"Temporary token"
//	@Success		200		{object}	authsdk.MessageResponse		"Code sent"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Token is required"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid temporary token"
//	@Failure		404		{object}	authsdk.ErrorResponse		"User not found"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many codes issued"
//	@Router			/v1/auth/resend-mfa [post].
func (h *AuthHandler) HandleResendMFA(w http.ResponseWriter, r *http.Request) {
	missing := authsdk.ErrInvalidRequest.WithDescription("Token is required")

	var req authsdk.ResendMFARequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.TempToken == "" {
		missing.WriteError(w)
		return
	}

	ip, ua := h.clientMeta(r)
	if err := h.Sessions.ResendMFA(r.Context(), req.TempToken, ip, ua); err != nil {
		writeServiceError(w, r, err, errorMap{
			service.ErrInvalidRequest: missing,
			service.ErrRateLimited:    authsdk.ErrRateLimited.WithDescription("Too many attempts. Please wait 15 minutes."),
			service.ErrUserNotFound:   authsdk.NewAPIError(http.StatusNotFound, authsdk.ErrorCodeUserNotFound, "User not found"),
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "New verification code sent to your email",
	})
}

// HandleRefresh handles POST /v1/auth/refresh-token
//
//	@Summary		Rotate the refresh token
//	@Description	Exchanges a refresh token (body or cookie) for a new pair. The old refresh token is
//	@Description	revoked; presenting it again fails.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	false	"Refresh token, if not sent as cookie"
//	@Success		200		{object}	authsdk.AuthResponse	"New token pair"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Missing, invalid or expired refresh token"
//	@Router			/v1/auth/refresh-token [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	_ = httpx.DecodeJSON(r, &req) // the cookie may be all there is

	raw := refreshTokenFrom(r, req.RefreshToken)
	if raw == "" {
		authsdk.ErrInvalidRefreshToken.WithDescription("Refresh token required").WriteError(w)
		return
	}

	ip, ua := h.clientMeta(r)
	res, err := h.Sessions.Refresh(r.Context(), raw, ip, ua)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	h.Cookies.Set(w, res)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Success:      true,
		Message:      "Token refreshed successfully",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int(res.ExpiresIn.Seconds()),
		User:         toSDKUser(res.User),
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Blacklists the presented access token, revokes the caller's refresh token (body or cookie)
//	@Description	and clears the auth cookies.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LogoutRequest	false	"Refresh token, if not sent as cookie"
//	@Success		200		{object}	authsdk.MessageResponse	"Logged out"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, service.ErrUnauthenticated.Error())
		return
	}

	var req authsdk.LogoutRequest
	_ = httpx.DecodeJSON(r, &req)

	err := h.Sessions.Logout(r.Context(), id.UserID, httpx.TokenFromRequest(r), refreshTokenFrom(r, req.RefreshToken))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	h.Cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// HandleLogoutAll handles POST /v1/auth/logout-all
//
//	@Summary		Log out everywhere
//	@Description	Revokes every refresh token of the caller and blacklists the presented access token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.LogoutAllResponse	"Logged out from all devices"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Router			/v1/auth/logout-all [post].
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, service.ErrUnauthenticated.Error())
		return
	}

	n, err := h.Sessions.LogoutAll(r.Context(), id.UserID, httpx.TokenFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	h.Cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LogoutAllResponse{
		Success:         true,
		Message:         "Logged out from all devices",
		RevokedSessions: n,
	})
}

// HandleMe handles GET /v1/auth/me
//
//	@Summary		Current user
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse		"Caller"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, service.ErrUnauthenticated.Error())
		return
	}

	user, err := h.Users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{Success: true, User: toSDKUser(user)})
}
