package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// AuthHandler serves password login, registration and the profile of the
// current session.
type AuthHandler struct {
	Users        *service.UserService
	Sessions     *service.SessionService
	CookieSecure bool
}

func profileOf(u domain.User, sess domain.Session) authsdk.Profile {
	return authsdk.Profile{
		UserID:           u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Avatar:           u.Avatar,
		AuthMethod:       string(sess.AuthMethod),
		SessionExpiry:    sess.ExpiresAt,
		TwoFactorEnabled: u.TwoFactorEnabled,
		SubscriptionTier: u.SubscriptionTier,
		Credits:          u.Credits,
	}
}

// issue mints a session for user, sets the cookie and returns the login profile.
func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, user domain.User, method domain.AuthMethod) (authsdk.Profile, bool) {
	sess, err := h.Sessions.Create(r.Context(), user, method)
	if err != nil {
		writeError(w, r, err)
		return authsdk.Profile{}, false
	}

	httpx.SetSessionCookie(w, sess.ID, sess.ExpiresAt, time.Now(), h.CookieSecure)

	p := profileOf(user, sess)
	p.SessionID = sess.ID
	return p, true
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register with email and password
//	@Description	Creates a password account and logs it in. The session id is returned in the body and as an HttpOnly cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authsdk.Profile			"Profile with session id"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid email, weak password or malformed body"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	user, err := h.Users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, ok := h.issue(w, r, user, domain.AuthMethodPassword)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, profile)
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Verifies the password and issues a session. Accounts with two-factor enabled still log in with the password alone; sensitive routes ask for a code per request.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.Profile			"Profile with session id"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	user, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, ok := h.issue(w, r, user, domain.AuthMethodPassword)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Invalidates the presented session and clears the cookie. Succeeds for missing or unknown sessions.
//	@Tags			Auth
//	@Security		SessionAuth
//	@Success		204	"Logged out"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Invalidate(r.Context(), httpx.SessionIDFromRequest(r)); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to invalidate session", "err", err)
	}
	httpx.ClearSessionCookie(w, h.CookieSecure)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /v1/auth/me
//
//	@Summary		Current profile
//	@Tags			Auth
//	@Security		SessionAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.Profile			"Profile"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, unknown or expired session"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileOf(p.User, p.Session))
}

// HandleUpdateProfile handles PATCH /v1/auth/me
//
//	@Summary		Update profile
//	@Description	Changes name and/or avatar. Requires X-MFA-Code when two-factor is enabled.
//	@Tags			Auth
//	@Security		SessionAuth
//	@Security		MFACode
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UpdateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.Profile					"Updated profile"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Session invalid or mfa_invalid"
//	@Failure		403		{object}	authsdk.ErrorResponse			"mfa_required"
//	@Router			/v1/auth/me [patch].
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}

	var req authsdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	user, err := h.Users.UpdateProfile(ctx, p.User.ID, req.Name, req.Avatar)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slogx.FromContext(ctx).Info("profile updated")
	httpx.WriteJSON(w, http.StatusOK, profileOf(user, p.Session))
}

// HandleRevokeOthers handles POST /v1/auth/sessions/revoke-others
//
//	@Summary		Sign out other sessions
//	@Description	Invalidates every session of the user except the one making the request. Requires X-MFA-Code when two-factor is enabled.
//	@Tags			Auth
//	@Security		SessionAuth
//	@Security		MFACode
//	@Produce		json
//	@Success		200	{object}	authsdk.RevokeSessionsResponse	"Number of sessions revoked"
//	@Failure		401	{object}	authsdk.ErrorResponse			"Session invalid or mfa_invalid"
//	@Failure		403	{object}	authsdk.ErrorResponse			"mfa_required"
//	@Router			/v1/auth/sessions/revoke-others [post].
func (h *AuthHandler) HandleRevokeOthers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}

	n, err := h.Sessions.InvalidateOthers(ctx, p.User.ID, p.Session.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slogx.FromContext(ctx).Info("other sessions revoked", "count", n)
	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeSessionsResponse{Revoked: n})
}
