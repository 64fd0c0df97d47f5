package oauth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

const (
	googleProfileURL    = "https://openidconnect.googleapis.com/v1/userinfo"
	githubProfileURL    = "https://api.github.com/user"
	githubEmailsURL     = "https://api.github.com/user/emails"
	microsoftProfileURL = "https://graph.microsoft.com/v1.0/me"

	DefaultMicrosoftTenant = "common"
)

// Credentials for a single provider. A provider is enabled when both the id
// and secret are set.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Tenant       string // Microsoft only
}

func (c Credentials) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }

// Config selects the providers to register.
type Config struct {
	// PublicURL is the externally visible base URL; callbacks are
	// PublicURL + /v1/auth/oauth/{provider}/callback.
	PublicURL string

	Google    Credentials
	GitHub    Credentials
	Microsoft Credentials
}

// CallbackURL returns the redirect URI registered with provider.
func (c Config) CallbackURL(provider domain.AuthMethod) string {
	return strings.TrimRight(c.PublicURL, "/") + "/v1/auth/oauth/" + string(provider) + "/callback"
}

// NewRegistryFromConfig registers every enabled provider.
func NewRegistryFromConfig(cfg Config) *Registry {
	r := NewRegistry()
	if cfg.Google.Enabled() {
		r.Register(NewGoogle(cfg.Google, cfg.CallbackURL(domain.AuthMethodGoogle)))
	}
	if cfg.GitHub.Enabled() {
		r.Register(NewGitHub(cfg.GitHub, cfg.CallbackURL(domain.AuthMethodGitHub)))
	}
	if cfg.Microsoft.Enabled() {
		r.Register(NewMicrosoft(cfg.Microsoft, cfg.CallbackURL(domain.AuthMethodMicrosoft)))
	}
	return r
}

func NewGoogle(c Credentials, redirectURL string) *Provider {
	return &Provider{
		Name: domain.AuthMethodGoogle,
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		ProfileURL: googleProfileURL,
		fetch:      fetchGoogle,
	}
}

func NewGitHub(c Credentials, redirectURL string) *Provider {
	return &Provider{
		Name: domain.AuthMethodGitHub,
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		ProfileURL: githubProfileURL,
		EmailsURL:  githubEmailsURL,
		fetch:      fetchGitHub,
	}
}

func NewMicrosoft(c Credentials, redirectURL string) *Provider {
	tenant := c.Tenant
	if tenant == "" {
		tenant = DefaultMicrosoftTenant
	}
	return &Provider{
		Name: domain.AuthMethodMicrosoft,
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		ProfileURL: microsoftProfileURL,
		fetch:      fetchMicrosoft,
	}
}

// Unverified Google addresses are dropped so they are never used to link
// an existing account.
func fetchGoogle(ctx context.Context, client *http.Client, p *Provider) (domain.OAuthProfile, error) {
	var data struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := getJSON(ctx, client, p.ProfileURL, &data); err != nil {
		return domain.OAuthProfile{}, err
	}

	email := data.Email
	if !data.EmailVerified {
		email = ""
	}
	return domain.OAuthProfile{
		ExternalID:    data.Sub,
		Email:         email,
		EmailVerified: email != "",
		Name:          data.Name,
		Avatar:        data.Picture,
	}, nil
}

func fetchGitHub(ctx context.Context, client *http.Client, p *Provider) (domain.OAuthProfile, error) {
	var data struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, p.ProfileURL, &data); err != nil {
		return domain.OAuthProfile{}, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, p.EmailsURL, &emails); err != nil {
		return domain.OAuthProfile{}, err
	}

	var email string
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}

	name := data.Name
	if name == "" {
		name = data.Login
	}
	var id string
	if data.ID != 0 {
		id = strconv.FormatInt(data.ID, 10)
	}
	return domain.OAuthProfile{
		ExternalID:    id,
		Email:         email,
		EmailVerified: email != "",
		Name:          name,
		Avatar:        data.AvatarURL,
	}, nil
}

// Graph's mail and userPrincipalName are set by the tenant admin and are not
// verified, so Microsoft profiles never carry EmailVerified.
func fetchMicrosoft(ctx context.Context, client *http.Client, p *Provider) (domain.OAuthProfile, error) {
	var data struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := getJSON(ctx, client, p.ProfileURL, &data); err != nil {
		return domain.OAuthProfile{}, err
	}

	email := data.Mail
	if email == "" && strings.Contains(data.UserPrincipalName, "@") {
		email = data.UserPrincipalName
	}
	return domain.OAuthProfile{
		ExternalID: data.ID,
		Email:      email,
		Name:       data.DisplayName,
	}, nil
}
