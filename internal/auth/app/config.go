package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeep/pkg/httpx"

	"github.com/joho/godotenv"
)

// Store drivers and session backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendStore  = "store"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	AppName string // TOTP issuer shown in authenticator apps (default: Gatekeep)

	StoreDriver  string // sqlite or postgres (default: sqlite)
	DatabaseFile string // sqlite file (default: ./auth.db)
	DatabaseURL  string // postgres DSN, required when StoreDriver is postgres

	SessionBackend   string // store or redis (default: store)
	RateLimitBackend string // memory or redis (default: memory)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	SessionTTL    time.Duration // Session lifetime (default: 24h)
	CookieSecure  bool          // Secure attribute on session cookies (default: false)
	PepperFile    string        // Password pepper (default: ./pepper)
	SecretKeyFile string        // Key sealing TOTP secrets at rest (default: ./secret.key)
	StateKeyFile  string        // Ed25519 key signing OAuth state (default: ./state.pem)

	PublicURL             string
	GoogleClientID        string
	GoogleClientSecret    string
	GitHubClientID        string
	GitHubClientSecret    string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftTenant       string

	CORSOrigins []string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
}

// LoadConfig reads the environment, after loading .env when one exists.
// Variables already set take precedence over the file.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	return Config{
		AppName: getEnvOrDefault("AUTH_APP_NAME", "Gatekeep"),

		StoreDriver:  strings.ToLower(getEnvOrDefault("AUTH_STORE_DRIVER", DriverSQLite)),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:  os.Getenv("AUTH_DATABASE_URL"),

		SessionBackend:   strings.ToLower(getEnvOrDefault("AUTH_SESSION_BACKEND", BackendStore)),
		RateLimitBackend: strings.ToLower(getEnvOrDefault("AUTH_RATELIMIT_BACKEND", BackendMemory)),
		RedisAddr:        getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:          getEnvIntOrDefault("AUTH_REDIS_DB", 0),

		SessionTTL:    getEnvDurationOrDefault("AUTH_SESSION_TTL", 24*time.Hour),
		CookieSecure:  getEnvBoolOrDefault("AUTH_COOKIE_SECURE", false),
		PepperFile:    getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SecretKeyFile: getEnvOrDefault("AUTH_SECRET_KEY_FILE", "secret.key"),
		StateKeyFile:  getEnvOrDefault("AUTH_STATE_KEY_FILE", "state.pem"),

		PublicURL:             getEnvOrDefault("AUTH_PUBLIC_URL", "http://localhost:8080"),
		GoogleClientID:        os.Getenv("AUTH_GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    os.Getenv("AUTH_GOOGLE_CLIENT_SECRET"),
		GitHubClientID:        os.Getenv("AUTH_GITHUB_CLIENT_ID"),
		GitHubClientSecret:    os.Getenv("AUTH_GITHUB_CLIENT_SECRET"),
		MicrosoftClientID:     os.Getenv("AUTH_MICROSOFT_CLIENT_ID"),
		MicrosoftClientSecret: os.Getenv("AUTH_MICROSOFT_CLIENT_SECRET"),
		MicrosoftTenant:       getEnvOrDefault("AUTH_MICROSOFT_TENANT", "common"),

		CORSOrigins: splitList(os.Getenv("AUTH_CORS_ORIGINS")),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects combinations the application cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("AUTH_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown AUTH_STORE_DRIVER %q", c.StoreDriver)
	}

	if c.SessionBackend != BackendStore && c.SessionBackend != BackendRedis {
		return fmt.Errorf("unknown AUTH_SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.RateLimitBackend != BackendMemory && c.RateLimitBackend != BackendRedis {
		return fmt.Errorf("unknown AUTH_RATELIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("AUTH_SESSION_TTL must be positive")
	}
	if err := httpx.DefaultCORSConfig(c.CORSOrigins).Validate(); err != nil {
		return fmt.Errorf("AUTH_CORS_ORIGINS: %w", err)
	}
	return nil
}

// UsesRedis reports whether any component needs a redis client.
func (c Config) UsesRedis() bool {
	return c.SessionBackend == BackendRedis || c.RateLimitBackend == BackendRedis
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
