package authsdk

import (
	"context"
	"net/http"
	"sync"
)

// CodeFunc supplies the current TOTP code, typically from an authenticator
// prompt. It is only called for requests that need a second factor.
type CodeFunc func(ctx context.Context) (string, error)

// Session represents an authenticated session. It is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu sync.RWMutex
	id string

	// Code, when set, is consulted for routes that require a second factor.
	Code CodeFunc
}

// ID returns the opaque session id.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// WithCode returns a copy of the session that presents code on sensitive
// requests. Handy for one-off calls.
func (s *Session) WithCode(code string) *Session {
	return &Session{
		client: s.client,
		id:     s.ID(),
		Code:   func(context.Context) (string, error) { return code, nil },
	}
}

// Me returns the current user's profile.
func (s *Session) Me(ctx context.Context) (*Profile, error) {
	resp, err := s.doSessionRequest(ctx, http.MethodGet, "/v1/auth/me", nil, false)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile changes name and/or avatar. Needs a second factor when
// two-factor authentication is enabled.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Profile, error) {
	resp, err := s.doSessionRequest(ctx, http.MethodPatch, "/v1/auth/me", req, true)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout invalidates the session. It is idempotent.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doSessionRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, false)
	if err != nil {
		return err
	}
	if err := checkStatusNoContent(resp); err != nil {
		return err
	}

	s.mu.Lock()
	s.id = ""
	s.mu.Unlock()
	return nil
}

// RevokeOtherSessions signs out every other session of the user. Needs a
// second factor when two-factor authentication is enabled.
func (s *Session) RevokeOtherSessions(ctx context.Context) (int64, error) {
	resp, err := s.doSessionRequest(ctx, http.MethodPost, "/v1/auth/sessions/revoke-others", nil, true)
	if err != nil {
		return 0, err
	}

	var out RevokeSessionsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}
