package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/oauth"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"

	_ "github.com/aussiebroadwan/gatekeep/api/auth" // Swagger docs
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// route is one API endpoint. Session routes run behind the session gate;
// TwoFactor routes additionally need X-MFA-Code from users with 2FA enabled.
type route struct {
	Pattern   string
	Handler   http.HandlerFunc
	Session   bool
	TwoFactor bool
	Limit     httpx.RateLimitConfig
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limiter      httpx.LimiterFactory

	// Database and SessionBackend are probed by /readyz. SessionBackend may be
	// nil when sessions live in the database.
	Database       Pinger
	SessionBackend Pinger

	UserService      *service.UserService
	SessionService   *service.SessionService
	TwoFactorService *service.TwoFactorService
	Gate             *service.Gate

	Providers *oauth.Registry
	State     *oauth.StateCodec

	Gatherer    prometheus.Gatherer
	HTTPMetrics *httpx.HTTPMetrics
	CORS        *httpx.CORSConfig

	CookieSecure bool
}

func NewRouter(buildVersion string, logger *slog.Logger, limiter httpx.LimiterFactory) *Router {
	if limiter == nil {
		limiter = httpx.MemoryLimiterFactory
	}
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		limiter:      limiter,
	}
}

// ApplyRoutes registers every endpoint and builds the global middleware
// chain. Call it once, after the services are set.
func (r *Router) ApplyRoutes() {
	for _, rt := range r.routes() {
		r.Mux.Handle(rt.Pattern, r.wrap(rt))
	}

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", r.Lenient(httpx.MetricsHandler(r.Gatherer)))
	}
	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	var cors, metrics httpx.Middleware
	if r.CORS != nil {
		cors = httpx.CORS(*r.CORS)
	}
	if r.HTTPMetrics != nil {
		metrics = r.HTTPMetrics.Middleware()
	}

	// Metrics sits directly on the mux so it can read the matched pattern.
	r.handler = httpx.Chain(r.Mux,
		cors,
		slogx.HTTPMiddleware(r.logger),
		metrics,
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Gatekeep Authentication Service API
//	@version					0.1.0
//	@description				Session based authentication with password and OAuth login and optional TOTP two-factor authentication.
//	@description
//	@description				Sessions are opaque ids sent as a cookie or bearer token. Routes marked MFACode also need the current TOTP code in X-MFA-Code when the account has two-factor enabled.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/gatekeep
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Authorization
//	@description				Session id. Format: "Bearer {session_id}". The session_id cookie is accepted too.
//
//	@securityDefinitions.apikey	MFACode
//	@in							header
//	@name						X-MFA-Code
//	@description				Current six digit TOTP code.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Lenient rate limits h by client address with the lenient profile.
func (r *Router) Lenient(h http.Handler) http.Handler {
	return httpx.Chain(h, httpx.RateLimitByIP(r.limiter, httpx.LenientLimit))
}

func (r *Router) wrap(rt route) http.Handler {
	if !rt.Session && !rt.TwoFactor {
		return httpx.Chain(rt.Handler, httpx.RateLimitByIP(r.limiter, rt.Limit))
	}

	var mws []httpx.Middleware
	if rt.TwoFactor {
		// Bound code guessing before the gate checks X-MFA-Code.
		mws = append(mws, httpx.RateLimitByIP(r.limiter, httpx.StrictLimit))
	}
	mws = append(mws,
		SessionGate(r.Gate, rt.TwoFactor),
		httpx.RateLimitByUser(r.limiter, rt.Limit),
	)
	return httpx.Chain(rt.Handler, mws...)
}

func (r *Router) routes() []route {
	auth := &AuthHandler{
		Users:        r.UserService,
		Sessions:     r.SessionService,
		CookieSecure: r.CookieSecure,
	}
	oauthH := &OAuthHandler{
		Providers: r.Providers,
		State:     r.State,
		Users:     r.UserService,
		Auth:      auth,
	}
	mfa := &MFAHandler{TwoFactor: r.TwoFactorService}

	routes := []route{
		// System
		{Pattern: "GET /{$}", Handler: RootHandler(r.buildVersion), Limit: httpx.PublicLimit},
		{Pattern: "GET /livez", Handler: LivezHandler(r.startTime, r.buildVersion), Limit: httpx.LenientLimit},
		{Pattern: "GET /readyz", Handler: ReadyzHandler(r.startTime, r.buildVersion, r.Database, r.SessionBackend), Limit: httpx.LenientLimit},

		// Primary authentication
		{Pattern: "POST /v1/auth/register", Handler: auth.HandleRegister, Limit: httpx.StrictLimit},
		{Pattern: "POST /v1/auth/login", Handler: auth.HandleLogin, Limit: httpx.StrictLimit},
		{Pattern: "POST /v1/auth/logout", Handler: auth.HandleLogout, Limit: httpx.ModerateLimit},

		// Profile
		{Pattern: "GET /v1/auth/me", Handler: auth.HandleMe, Session: true, Limit: httpx.LenientLimit},
		{Pattern: "PATCH /v1/auth/me", Handler: auth.HandleUpdateProfile, Session: true, TwoFactor: true, Limit: httpx.ModerateLimit},
		{Pattern: "POST /v1/auth/sessions/revoke-others", Handler: auth.HandleRevokeOthers, Session: true, TwoFactor: true, Limit: httpx.ModerateLimit},

		// Two-factor
		{Pattern: "POST /v1/mfa/totp/setup", Handler: mfa.HandleSetup, Session: true, Limit: httpx.ModerateLimit},
		{Pattern: "POST /v1/mfa/totp/verify", Handler: mfa.HandleVerify, Session: true, Limit: httpx.StrictLimit},
		{Pattern: "POST /v1/mfa/totp/validate", Handler: mfa.HandleValidate, Session: true, Limit: httpx.StrictLimit},
		{Pattern: "DELETE /v1/mfa/totp", Handler: mfa.HandleDisable, Session: true, TwoFactor: true, Limit: httpx.ModerateLimit},
	}

	if r.Providers != nil && r.State != nil {
		routes = append(routes,
			route{Pattern: "GET /v1/auth/providers", Handler: oauthH.HandleProviders, Limit: httpx.PublicLimit},
			route{Pattern: "GET /v1/auth/oauth/{provider}/login", Handler: oauthH.HandleLogin, Limit: httpx.LenientLimit},
			route{Pattern: "GET /v1/auth/oauth/{provider}/callback", Handler: oauthH.HandleCallback, Limit: httpx.ModerateLimit},
		)
	}
	return routes
}
