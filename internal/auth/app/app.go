package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/gatekeep/internal/auth/http"
	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeep/internal/auth/oauth"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/postgres"
	redisstore "github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	stateKeyID = "oauth-state"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	redis    redis.UniversalClient
	sessions store.Sessions
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Services
	userService         *service.UserService
	sessionService      *service.SessionService
	twoFactorService    *service.TwoFactorService
	gate                *service.Gate
	housekeepingService *service.HousekeepingService

	providers *oauth.Registry
	state     *oauth.StateCodec

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatekeep",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initSessions(ctx); err != nil {
		_ = app.closeBackends()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"sessions", app.cfg.SessionBackend,
		"providers", app.providers.Names(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		app.logger.Error("error closing backends", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeBackends() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

// initSessions picks the session backend and connects redis when needed
func (app *Application) initSessions(ctx context.Context) error {
	app.sessions = app.db.Sessions()
	if !app.cfg.UsesRedis() {
		return nil
	}

	client, err := OpenRedis(ctx, app.cfg)
	if err != nil {
		return err
	}
	app.redis = client

	if app.cfg.SessionBackend == BackendRedis {
		app.sessions = redisstore.NewSessionStore(client, redisstore.DefaultPrefix)
	}
	app.logger.Info("redis connected",
		"addr", app.cfg.RedisAddr,
		"sessions", app.cfg.SessionBackend == BackendRedis,
		"rate_limit", app.cfg.RateLimitBackend == BackendRedis,
	)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	box, err := cryptox.LoadSecretBox(app.cfg.SecretKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load secret key: %w", err)
	}
	stateKey, err := cryptox.LoadOrCreateEd25519Key(app.cfg.StateKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load state key: %w", err)
	}
	signer, err := jwtx.NewSignerEdDSA(stateKeyID, stateKey)
	if err != nil {
		return fmt.Errorf("failed to create state signer: %w", err)
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	app.userService = &service.UserService{
		Store:   app.db,
		Hasher:  cryptox.NewPasswordHasher(pepper),
		Metrics: app.metrics,
	}
	app.sessionService = &service.SessionService{
		Users:    app.db.Users(),
		Sessions: app.sessions,
		TTL:      app.cfg.SessionTTL,
		Metrics:  app.metrics,
	}
	app.twoFactorService = &service.TwoFactorService{
		Users:   app.db.Users(),
		Box:     box,
		Issuer:  app.cfg.AppName,
		Metrics: app.metrics,
	}
	app.gate = &service.Gate{
		Sessions:  app.sessionService,
		TwoFactor: app.twoFactorService,
		Metrics:   app.metrics,
	}

	app.providers = oauth.NewRegistryFromConfig(app.cfg.oauthConfig())
	app.state = oauth.NewStateCodec(signer, app.cfg.AppName)

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	var limiter httpx.LimiterFactory = httpx.MemoryLimiterFactory
	if app.cfg.RateLimitBackend == BackendRedis {
		limiter = httpx.RedisLimiterFactory(app.redis)
	}

	router := httpapi.NewRouter(BuildVersion, app.logger, limiter)

	// Wire services to router
	router.Database = app.db
	if rs, ok := app.sessions.(*redisstore.SessionStore); ok {
		router.SessionBackend = rs
	}
	router.UserService = app.userService
	router.SessionService = app.sessionService
	router.TwoFactorService = app.twoFactorService
	router.Gate = app.gate
	router.Providers = app.providers
	router.State = app.state
	router.Gatherer = app.registry
	router.HTTPMetrics = httpx.NewHTTPMetrics(app.registry, metrics.Namespace)
	cors := httpx.DefaultCORSConfig(app.cfg.CORSOrigins)
	router.CORS = &cors
	router.CookieSecure = app.cfg.CookieSecure
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (c Config) oauthConfig() oauth.Config {
	return oauth.Config{
		PublicURL: c.PublicURL,
		Google: oauth.Credentials{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
		},
		GitHub: oauth.Credentials{
			ClientID:     c.GitHubClientID,
			ClientSecret: c.GitHubClientSecret,
		},
		Microsoft: oauth.Credentials{
			ClientID:     c.MicrosoftClientID,
			ClientSecret: c.MicrosoftClientSecret,
			Tenant:       c.MicrosoftTenant,
		},
	}
}

// OpenStore connects the configured store driver. Migrations are not applied.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case DriverPostgres:
		db, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	case DriverSQLite, "":
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenRedis connects to AUTH_REDIS_ADDR and checks the connection.
func OpenRedis(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
