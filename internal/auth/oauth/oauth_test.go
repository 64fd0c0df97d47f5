package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/oauth"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider serves token, profile and email endpoints for one access token.
func fakeProvider(t *testing.T, profile any, emails any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	writeAuthed := func(v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-123" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(v)
		}
	}
	mux.HandleFunc("GET /user", writeAuthed(profile))
	mux.HandleFunc("GET /user/emails", writeAuthed(emails))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(p *oauth.Provider, srv *httptest.Server) {
	p.Config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.ProfileURL = srv.URL + "/user"
	p.EmailsURL = srv.URL + "/user/emails"
}

func TestGitHubExchange(t *testing.T) {
	srv := fakeProvider(t,
		map[string]any{"id": 42, "login": "octocat", "name": "", "avatar_url": "https://a/octo.png"},
		[]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octo@example.com", "primary": true, "verified": true},
		},
	)
	p := oauth.NewGitHub(oauth.Credentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/cb")
	pointAt(p, srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, domain.OAuthProfile{
		Provider:      domain.AuthMethodGitHub,
		ExternalID:    "42",
		Email:         "octo@example.com",
		EmailVerified: true,
		Name:          "octocat",
		Avatar:        "https://a/octo.png",
	}, profile)

	_, err = p.Exchange(context.Background(), "bad-code")
	require.ErrorIs(t, err, oauth.ErrExchange)
}

func TestGoogleDropsUnverifiedEmail(t *testing.T) {
	srv := fakeProvider(t,
		map[string]any{"sub": "g-1", "email": "g@example.com", "email_verified": false, "name": "G"},
		nil,
	)
	p := oauth.NewGoogle(oauth.Credentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/cb")
	pointAt(p, srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "g-1", profile.ExternalID)
	require.Empty(t, profile.Email)
	require.False(t, profile.EmailVerified)
}

func TestMicrosoftFallsBackToUPN(t *testing.T) {
	srv := fakeProvider(t,
		map[string]any{"id": "ms-1", "displayName": "M S", "mail": "", "userPrincipalName": "ms@contoso.example"},
		nil,
	)
	p := oauth.NewMicrosoft(oauth.Credentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/cb")
	pointAt(p, srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "ms@contoso.example", profile.Email)
	require.False(t, profile.EmailVerified)
	require.Equal(t, domain.AuthMethodMicrosoft, profile.Provider)
}

func TestMicrosoftMailIsNeverVerified(t *testing.T) {
	srv := fakeProvider(t,
		map[string]any{"id": "attacker-oid", "mail": "victim@example.com", "userPrincipalName": "victim@example.com"},
		nil,
	)
	p := oauth.NewMicrosoft(oauth.Credentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/cb")
	pointAt(p, srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "victim@example.com", profile.Email)
	require.False(t, profile.EmailVerified)
}

func TestProfileWithoutSubjectRejected(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"email": "x@example.com"}, nil)
	p := oauth.NewGoogle(oauth.Credentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/cb")
	pointAt(p, srv)

	_, err := p.Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, oauth.ErrProfile)
}

func TestRegistryFromConfig(t *testing.T) {
	r := oauth.NewRegistryFromConfig(oauth.Config{
		PublicURL: "https://auth.example/",
		Google:    oauth.Credentials{ClientID: "g", ClientSecret: "gs"},
		Microsoft: oauth.Credentials{ClientID: "m", ClientSecret: "ms", Tenant: "contoso"},
		GitHub:    oauth.Credentials{ClientID: "only-id"},
	})
	require.Equal(t, []string{"google", "microsoft"}, r.Names())

	_, err := r.Get("github")
	require.ErrorIs(t, err, oauth.ErrUnknownProvider)

	p, err := r.Get("Google")
	require.NoError(t, err)
	require.Equal(t, "https://auth.example/v1/auth/oauth/google/callback", p.Config.RedirectURL)

	ms, err := r.Get("microsoft")
	require.NoError(t, err)
	require.Contains(t, ms.Config.Endpoint.AuthURL, "/contoso/")

	u, err := url.Parse(p.AuthCodeURL("state-value"))
	require.NoError(t, err)
	require.Equal(t, "state-value", u.Query().Get("state"))
	require.Equal(t, "g", u.Query().Get("client_id"))
}

func newCodec(t *testing.T) *oauth.StateCodec {
	t.Helper()
	pem, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("state", pem)
	require.NoError(t, err)
	return oauth.NewStateCodec(signer, "gatekeep-test")
}

func TestStateCodec(t *testing.T) {
	c := newCodec(t)
	now := time.Now()
	c.Now = func() time.Time { return now }

	state, nonce, err := c.Issue("github", "/after")
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	claims, err := c.Verify(state, "github", nonce)
	require.NoError(t, err)
	require.Equal(t, "/after", claims.ReturnTo)

	_, err = c.Verify(state, "google", nonce)
	require.ErrorIs(t, err, oauth.ErrInvalidState)

	_, err = c.Verify(state, "github", "other-nonce")
	require.ErrorIs(t, err, oauth.ErrInvalidState)

	_, err = c.Verify(state, "github", "")
	require.ErrorIs(t, err, oauth.ErrInvalidState)

	_, err = newCodec(t).Verify(state, "github", nonce)
	require.ErrorIs(t, err, oauth.ErrInvalidState, "state signed by another key")

	now = now.Add(jwtx.DefaultStateTTL + time.Minute)
	_, err = c.Verify(state, "github", nonce)
	require.ErrorIs(t, err, oauth.ErrInvalidState)
}
