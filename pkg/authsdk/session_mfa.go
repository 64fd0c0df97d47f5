package authsdk

import (
	"context"
	"net/http"
)

// SetupTOTP starts enrollment. Calling it again before VerifyTOTP replaces
// the pending secret.
func (s *Session) SetupTOTP(ctx context.Context) (*TOTPSetupResponse, error) {
	resp, err := s.doSessionRequest(ctx, http.MethodPost, "/v1/mfa/totp/setup", nil, false)
	if err != nil {
		return nil, err
	}

	var out TOTPSetupResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTOTP confirms enrollment with a code from the new secret.
func (s *Session) VerifyTOTP(ctx context.Context, code string) error {
	resp, err := s.doSessionRequest(ctx, http.MethodPost, "/v1/mfa/totp/verify", TOTPCodeRequest{Code: code}, false)
	if err != nil {
		return err
	}

	var out TOTPVerifyResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// ValidateTOTP checks a code against the enrolled secret. An accepted code
// cannot be used again.
func (s *Session) ValidateTOTP(ctx context.Context, code string) error {
	resp, err := s.doSessionRequest(ctx, http.MethodPost, "/v1/mfa/totp/validate", TOTPCodeRequest{Code: code}, false)
	if err != nil {
		return err
	}

	var out TOTPValidateResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// DisableTOTP turns two-factor authentication off. Needs a second factor.
func (s *Session) DisableTOTP(ctx context.Context) error {
	resp, err := s.doSessionRequest(ctx, http.MethodDelete, "/v1/mfa/totp", nil, true)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
