package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the gatekeep authentication service.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a password account and returns a Session for it.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Session, *Profile, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", req, nil)
	if err != nil {
		return nil, nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile, http.StatusCreated); err != nil {
		return nil, nil, err
	}
	return c.NewSession(profile.SessionID), &profile, nil
}

// Login authenticates with email and password.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, *Profile, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", LoginRequest{Email: email, Password: password}, nil)
	if err != nil {
		return nil, nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return c.NewSession(profile.SessionID), &profile, nil
}

// Providers lists the OAuth providers that can be used for login.
func (c *SDKClient) Providers(ctx context.Context) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/providers", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ProvidersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// OAuthLoginURL is where a browser should be sent to start login with provider.
func (c *SDKClient) OAuthLoginURL(provider string) string {
	return c.url("/v1/auth/oauth/" + provider + "/login")
}

// NewSession wraps a session id obtained elsewhere, e.g. from an OAuth callback.
func (c *SDKClient) NewSession(sessionID string) *Session {
	return &Session{client: c, id: sessionID}
}
