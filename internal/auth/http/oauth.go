package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/auth/oauth"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const (
	nonceCookieName = "oauth_nonce"
	nonceCookiePath = "/v1/auth/oauth/"
)

// OAuthHandler runs the browser side of provider login.
type OAuthHandler struct {
	Providers *oauth.Registry
	State     *oauth.StateCodec
	Users     *service.UserService
	Auth      *AuthHandler
}

// HandleProviders handles GET /v1/auth/providers
//
//	@Summary		List login providers
//	@Tags			OAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProvidersResponse	"Configured providers"
//	@Router			/v1/auth/providers [get].
func (h *OAuthHandler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.ProvidersResponse{Providers: h.Providers.Names()})
}

// HandleLogin handles GET /v1/auth/oauth/{provider}/login
//
//	@Summary		Start provider login
//	@Description	Redirects to the provider consent page. A signed state and a browser nonce cookie tie the callback to this browser.
//	@Tags			OAuth
//	@Param			provider	path	string	true	"Provider"	Enums(google, github, microsoft)
//	@Param			return_to	query	string	false	"Relative path to redirect to after login"
//	@Success		302			"Redirect to provider"
//	@Failure		404			{object}	authsdk.ErrorResponse	"Unknown provider"
//	@Router			/v1/auth/oauth/{provider}/login [get].
func (h *OAuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	state, nonce, err := h.State.Issue(string(p.Name), safeReturnTo(r.URL.Query().Get("return_to")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    nonce,
		Path:     nonceCookiePath,
		MaxAge:   int(h.State.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback handles GET /v1/auth/oauth/{provider}/callback
//
//	@Summary		Finish provider login
//	@Description	Verifies state, exchanges the code, links or creates the account and issues a session. Redirects to return_to when the login started with one.
//	@Tags			OAuth
//	@Produce		json
//	@Param			provider	path		string	true	"Provider"	Enums(google, github, microsoft)
//	@Param			code		query		string	true	"Authorization code"
//	@Param			state		query		string	true	"State from the login redirect"
//	@Success		200			{object}	authsdk.Profile			"Profile with session id"
//	@Success		302			"Redirect to return_to"
//	@Failure		400			{object}	authsdk.ErrorResponse	"Invalid state or no verified email"
//	@Failure		404			{object}	authsdk.ErrorResponse	"Unknown provider"
//	@Failure		502			{object}	authsdk.ErrorResponse	"Provider error"
//	@Router			/v1/auth/oauth/{provider}/callback [get].
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	if perr := q.Get("error"); perr != "" {
		log.Info("provider refused login", "provider", p.Name, "provider_error", perr)
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeProviderError, "login was cancelled at the provider").WriteError(w)
		return
	}

	var nonce string
	if c, err := r.Cookie(nonceCookieName); err == nil {
		nonce = c.Value
	}
	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Path:     nonceCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	claims, err := h.State.Verify(q.Get("state"), string(p.Name), nonce)
	if err != nil {
		log.Warn("oauth state rejected", "provider", p.Name, "err", err)
		writeError(w, r, err)
		return
	}

	code := q.Get("code")
	if code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	profile, err := p.Exchange(h.Providers.Context(ctx), code)
	if err != nil {
		log.Warn("oauth exchange failed", "provider", p.Name, "err", err)
		writeError(w, r, err)
		return
	}

	user, err := h.Users.FindOrCreateOAuthUser(ctx, profile)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, ok := h.Auth.issue(w, r, user, p.Name)
	if !ok {
		return
	}

	if claims.ReturnTo != "" {
		httpx.NoCache(w)
		http.Redirect(w, r, claims.ReturnTo, http.StatusFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// safeReturnTo only keeps same-origin absolute paths. Browsers drop tabs and
// newlines from URLs, so any control byte is rejected outright.
func safeReturnTo(s string) string {
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.Contains(s, `\`) {
		return ""
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return ""
		}
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return ""
	}
	return s
}
