package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

// MFAHandler handles all MFA-related endpoints.
type MFAHandler struct {
	TwoFactor *service.TwoFactorService
}

// HandleSetup handles POST /v1/mfa/totp/setup
//
//	@Summary		Start TOTP enrollment
//	@Description	Generates a TOTP secret for the authenticated user and returns it with a QR code. Repeating the call replaces an unverified secret.
//	@Tags			MFA
//	@Security		SessionAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPSetupResponse	"TOTP secret and QR code"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing, unknown or expired session"
//	@Failure		409	{object}	authsdk.ErrorResponse		"Two-factor already enabled"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp/setup [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}

	enrollment, err := h.TwoFactor.BeginSetup(ctx, p.User)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPSetupResponse{
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.URI,
		QRCode:     enrollment.Image,
		Issuer:     enrollment.Issuer,
		Account:    enrollment.Account,
	})
}

// HandleVerify handles POST /v1/mfa/totp/verify
//
//	@Summary		Verify TOTP code and enable MFA
//	@Description	Checks a code from the pending secret and turns two-factor authentication on.
//	@Tags			MFA
//	@Security		SessionAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPCodeRequest		true	"TOTP code"
//	@Success		200		{object}	authsdk.TOTPVerifyResponse	"Two-factor enabled"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid code or no setup in progress"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Missing, unknown or expired session"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Two-factor already enabled"
//	@Router			/v1/mfa/totp/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.TwoFactor.VerifySetup(ctx, p.User, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPVerifyResponse{TwoFactorEnabled: true})
}

// HandleValidate handles POST /v1/mfa/totp/validate
//
//	@Summary		Validate a TOTP code
//	@Description	Checks a code against the enrolled secret. An accepted code is consumed and cannot be replayed.
//	@Tags			MFA
//	@Security		SessionAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPCodeRequest			true	"TOTP code"
//	@Success		200		{object}	authsdk.TOTPValidateResponse	"Code accepted"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Invalid or reused code, or two-factor not enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Missing, unknown or expired session"
//	@Router			/v1/mfa/totp/validate [post].
func (h *MFAHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.TwoFactor.Validate(ctx, p.User, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPValidateResponse{Valid: true})
}

// HandleDisable handles DELETE /v1/mfa/totp
//
//	@Summary		Disable TOTP
//	@Description	Turns two-factor authentication off. Requires X-MFA-Code.
//	@Tags			MFA
//	@Security		SessionAuth
//	@Security		MFACode
//	@Success		204	"Two-factor disabled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Session invalid or mfa_invalid"
//	@Failure		403	{object}	authsdk.ErrorResponse	"mfa_required"
//	@Router			/v1/mfa/totp [delete].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}

	if err := h.TwoFactor.Disable(ctx, p.User); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
