// Package oauth runs the authorization code flow against Google, GitHub and
// Microsoft and turns the result into a domain.OAuthProfile.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"

	"golang.org/x/oauth2"
)

var (
	ErrUnknownProvider = errors.New("unknown or disabled oauth provider")
	ErrExchange        = errors.New("oauth code exchange failed")
	ErrProfile         = errors.New("oauth profile fetch failed")
)

// profileFetcher reads the provider's user endpoint with an authorised client.
type profileFetcher func(ctx context.Context, client *http.Client, p *Provider) (domain.OAuthProfile, error)

// Provider is one configured identity provider.
type Provider struct {
	Name   domain.AuthMethod
	Config *oauth2.Config

	// ProfileURL is the user info endpoint. EmailsURL is only used by
	// GitHub, whose profile omits private addresses.
	ProfileURL string
	EmailsURL  string

	fetch profileFetcher
}

// AuthCodeURL is where the browser is sent to grant consent.
func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and loads the profile with it. Pass an
// *http.Client in ctx under oauth2.HTTPClient to override transport.
func (p *Provider) Exchange(ctx context.Context, code string) (domain.OAuthProfile, error) {
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	profile, err := p.fetch(ctx, p.Config.Client(ctx, tok), p)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	if profile.ExternalID == "" {
		return domain.OAuthProfile{}, fmt.Errorf("%w: missing subject", ErrProfile)
	}
	profile.Provider = p.Name
	return profile, nil
}

// Registry holds the providers that have credentials configured.
type Registry struct {
	providers map[domain.AuthMethod]*Provider

	// HTTPClient, when set, is used for token and profile requests.
	HTTPClient *http.Client
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[domain.AuthMethod]*Provider)}
}

// Register adds p, replacing any provider with the same name.
func (r *Registry) Register(p *Provider) {
	r.providers[p.Name] = p
}

// Get returns the provider called name.
func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[domain.AuthMethod(strings.ToLower(name))]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// Names lists configured providers in a stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, string(n))
	}
	slices.Sort(names)
	return names
}

// Context attaches HTTPClient to ctx for the oauth2 package.
func (r *Registry) Context(ctx context.Context) context.Context {
	if r.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, r.HTTPClient)
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
