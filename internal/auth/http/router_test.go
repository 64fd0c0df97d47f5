package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/gatekeep/internal/auth/http"
	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeep/internal/auth/oauth"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type server struct {
	*httptest.Server
	clock     *clock
	providers *oauth.Registry
	client    *authsdk.SDKClient
}

func newServer(t *testing.T) *server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	box, err := cryptox.NewSecretBox([]byte("router-test-key"))
	require.NoError(t, err)
	pem, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("state", pem)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	clk := &clock{t: time.Unix(1_800_000_015, 0).UTC()}

	sessions := &service.SessionService{
		Users:    st.Users(),
		Sessions: st.Sessions(),
		TTL:      time.Hour,
		Now:      clk.Now,
		Metrics:  m,
	}
	twoFactor := &service.TwoFactorService{
		Users:   st.Users(),
		Box:     box,
		Issuer:  "Gatekeep",
		Now:     clk.Now,
		Metrics: m,
	}

	providers := oauth.NewRegistry()
	router := httpapi.NewRouter("test", slogx.Discard(), httpx.MemoryLimiterFactory)
	router.Database = st
	router.UserService = &service.UserService{
		Store:   st,
		Hasher:  cryptox.NewPasswordHasher([]byte("pepper")),
		Now:     clk.Now,
		Metrics: m,
	}
	router.SessionService = sessions
	router.TwoFactorService = twoFactor
	router.Gate = &service.Gate{Sessions: sessions, TwoFactor: twoFactor, Metrics: m}
	router.Providers = providers
	router.State = oauth.NewStateCodec(signer, "gatekeep-test")
	router.Gatherer = reg
	router.HTTPMetrics = httpx.NewHTTPMetrics(reg, metrics.Namespace)
	cors := httpx.DefaultCORSConfig([]string{"https://app.example"})
	router.CORS = &cors
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &server{
		Server:    srv,
		clock:     clk,
		providers: providers,
		client:    authsdk.NewSDKClient(srv.URL),
	}
}

func (s *server) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, s.clock.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func (s *server) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	valid := map[string]bool{}
	for _, off := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		c, err := totp.GenerateCodeCustom(secret, s.clock.Now().Add(off), totp.ValidateOpts{
			Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		valid[c] = true
	}
	for _, c := range []string{"000000", "123456", "654321", "111111"} {
		if !valid[c] {
			return c
		}
	}
	t.Fatal("no wrong code available")
	return ""
}

func TestTwoFactorLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	_, reg, err := s.client.Register(ctx, authsdk.RegisterRequest{Email: "Ada@Example.com", Password: "correct horse", Name: "Ada"})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", reg.Email)
	require.NotEmpty(t, reg.SessionID)

	_, _, err = s.client.Register(ctx, authsdk.RegisterRequest{Email: "ada@example.com", Password: "another one"})
	require.ErrorIs(t, err, authsdk.ErrEmailTaken)

	_, _, err = s.client.Login(ctx, "ada@example.com", "wrong password")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	sess, login, err := s.client.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "password", login.AuthMethod)
	require.True(t, login.SessionExpiry.Equal(s.clock.Now().Add(time.Hour)))
	require.False(t, login.TwoFactorEnabled)

	// Without 2FA the sensitive route needs only the session.
	name := "Ada L."
	p, err := sess.UpdateProfile(ctx, authsdk.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Ada L.", p.Name)

	require.ErrorIs(t, sess.VerifyTOTP(ctx, "123456"), authsdk.ErrNotEnrolled)

	setup, err := sess.SetupTOTP(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	require.Equal(t, "ada@example.com", setup.Account)

	require.ErrorIs(t, sess.VerifyTOTP(ctx, s.wrongCode(t, setup.Secret)), authsdk.ErrInvalidCode)
	require.NoError(t, sess.VerifyTOTP(ctx, s.code(t, setup.Secret)))
	require.ErrorIs(t, sess.VerifyTOTP(ctx, s.code(t, setup.Secret)), authsdk.ErrAlreadyEnrolled)

	_, err = sess.SetupTOTP(ctx)
	require.ErrorIs(t, err, authsdk.ErrAlreadyEnrolled)

	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.True(t, me.TwoFactorEnabled)
	require.Empty(t, me.SessionID)

	// Sensitive call, no code.
	_, err = sess.UpdateProfile(ctx, authsdk.UpdateProfileRequest{Name: &name})
	require.ErrorIs(t, err, authsdk.ErrMFARequired)

	// Wrong code.
	_, err = sess.WithCode(s.wrongCode(t, setup.Secret)).UpdateProfile(ctx, authsdk.UpdateProfileRequest{Name: &name})
	require.ErrorIs(t, err, authsdk.ErrMFAInvalid)

	// Correct code, then the same code again.
	code := s.code(t, setup.Secret)
	name = "Ada Lovelace"
	p, err = sess.WithCode(code).UpdateProfile(ctx, authsdk.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", p.Name)

	_, err = sess.WithCode(code).RevokeOtherSessions(ctx)
	require.ErrorIs(t, err, authsdk.ErrMFAInvalid)

	// A new step brings a new code.
	s.clock.Advance(30 * time.Second)
	n, err := sess.WithCode(s.code(t, setup.Secret)).RevokeOtherSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n, "the registration session")

	s.clock.Advance(30 * time.Second)
	require.NoError(t, sess.ValidateTOTP(ctx, s.code(t, setup.Secret)))
	require.ErrorIs(t, sess.ValidateTOTP(ctx, s.code(t, setup.Secret)), authsdk.ErrInvalidCode)

	s.clock.Advance(30 * time.Second)
	require.NoError(t, sess.WithCode(s.code(t, setup.Secret)).DisableTOTP(ctx))

	me, err = sess.Me(ctx)
	require.NoError(t, err)
	require.False(t, me.TwoFactorEnabled)
	require.ErrorIs(t, sess.ValidateTOTP(ctx, s.code(t, setup.Secret)), authsdk.ErrNotEnrolled)

	require.NoError(t, sess.Logout(ctx))
	_, err = s.client.NewSession(login.SessionID).Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionNotFound)
}

func TestSessionErrorsOverHTTP(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	sess, _, err := s.client.Register(ctx, authsdk.RegisterRequest{Email: "bob@example.com", Password: "password1"})
	require.NoError(t, err)

	resp, err := http.Get(s.URL + "/v1/auth/me")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Session", resp.Header.Get("WWW-Authenticate"))

	s.clock.Advance(time.Hour)
	_, err = sess.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionExpired)

	// Expired sessions are removed when seen.
	_, err = sess.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionNotFound)

	// Logout is idempotent, with or without a session.
	require.NoError(t, sess.Logout(ctx))
	require.NoError(t, s.client.NewSession("").Logout(ctx))
}

func TestMFARequiredHeader(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	sess, _, err := s.client.Register(ctx, authsdk.RegisterRequest{Email: "eve@example.com", Password: "password1"})
	require.NoError(t, err)
	setup, err := sess.SetupTOTP(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.VerifyTOTP(ctx, s.code(t, setup.Secret)))

	req, err := http.NewRequest(http.MethodDelete, s.URL+"/v1/mfa/totp", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.ID())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get(httpx.TwoFactorRequiredHeader))

	var body authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, authsdk.ErrorCodeMFARequired, body.Error)
}

func TestSystemEndpoints(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	health, err := s.client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks.Database)

	live, err := s.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "test", live.Version)

	resp, err := http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	require.Equal(t, http.StatusNoContent, pre.StatusCode)
	require.Equal(t, "https://app.example", pre.Header.Get("Access-Control-Allow-Origin"))
}

// fakeGitHub serves token, user and email endpoints.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "gh-token", "token_type": "Bearer"})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "login": "octo", "avatar_url": "https://a/o.png"})
	})
	mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"email": "octo@example.com", "primary": true, "verified": true}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuthLoginFlow(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	gh := fakeGitHub(t)
	p := oauth.NewGitHub(oauth.Credentials{ClientID: "cid", ClientSecret: "csecret"}, s.URL+"/v1/auth/oauth/github/callback")
	p.Config.Endpoint = oauth2.Endpoint{AuthURL: gh.URL + "/authorize", TokenURL: gh.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	p.ProfileURL = gh.URL + "/user"
	p.EmailsURL = gh.URL + "/user/emails"
	s.providers.Register(p)

	names, err := s.client.Providers(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"github"}, names)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	browser := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := browser.Get(s.client.OAuthLoginURL("github"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "cid", consent.Query().Get("client_id"))
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	// A browser without the nonce cookie cannot finish the flow.
	stolen, err := http.Get(s.URL + "/v1/auth/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	require.NoError(t, err)
	stolen.Body.Close()
	require.Equal(t, http.StatusBadRequest, stolen.StatusCode)

	resp, err = browser.Get(s.URL + "/v1/auth/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile authsdk.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	require.Equal(t, "octo@example.com", profile.Email)
	require.Equal(t, "github", profile.AuthMethod)
	require.Equal(t, "octo", profile.Name)

	me, err := s.client.NewSession(profile.SessionID).Me(ctx)
	require.NoError(t, err)
	require.Equal(t, profile.UserID, me.UserID)

	unknown, err := browser.Get(s.client.OAuthLoginURL("myspace"))
	require.NoError(t, err)
	unknown.Body.Close()
	require.Equal(t, http.StatusNotFound, unknown.StatusCode)
}
