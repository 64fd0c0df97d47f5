package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/oauth"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// errorMapping pairs a service sentinel with the response written for it.
type errorMapping struct {
	target error
	resp   *authsdk.APIError
	header [2]string
}

var errorMappings = []errorMapping{
	{service.ErrSessionNotFound, authsdk.ErrSessionNotFound, [2]string{"WWW-Authenticate", "Session"}},
	{service.ErrSessionExpired, authsdk.ErrSessionExpired, [2]string{"WWW-Authenticate", "Session"}},
	{service.ErrMFARequired, authsdk.ErrMFARequired, [2]string{httpx.TwoFactorRequiredHeader, "true"}},
	{service.ErrMFAInvalid, authsdk.ErrMFAInvalid, [2]string{}},
	{service.ErrAlreadyEnrolled, authsdk.ErrAlreadyEnrolled, [2]string{}},
	{service.ErrInvalidCode, authsdk.ErrInvalidCode, [2]string{}},
	{service.ErrCodeReplayed, authsdk.ErrInvalidCode, [2]string{}},
	{service.ErrNotEnrolled, authsdk.ErrNotEnrolled, [2]string{}},
	{service.ErrInvalidCredentials, authsdk.ErrInvalidCredentials, [2]string{}},
	{service.ErrEmailTaken, authsdk.ErrEmailTaken, [2]string{}},
	{service.ErrInvalidEmail, authsdk.ErrInvalidEmail, [2]string{}},
	{service.ErrWeakPassword, authsdk.ErrWeakPassword, [2]string{}},
	{service.ErrEmailRequired, authsdk.ErrEmailRequired, [2]string{}},
	{oauth.ErrUnknownProvider, authsdk.ErrUnknownProvider, [2]string{}},
	{oauth.ErrInvalidState, authsdk.ErrInvalidState, [2]string{}},
	{oauth.ErrExchange, authsdk.ErrProviderError, [2]string{}},
	{oauth.ErrProfile, authsdk.ErrProviderError, [2]string{}},
	{store.ErrNotFound, authsdk.ErrNotFound, [2]string{}},
}

// writeError maps err to its JSON response. Anything unrecognised is logged
// and reported as a server error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.header[0] != "" {
				w.Header().Set(m.header[0], m.header[1])
			}
			m.resp.WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("unhandled error", "err", err)
	authsdk.ErrServerError.WriteError(w)
}

// badRequest reports a body that could not be decoded.
func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Warn("failed to parse request", "err", err)
	authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "Invalid JSON body").WriteError(w)
}
