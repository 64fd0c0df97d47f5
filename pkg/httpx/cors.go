package httpx

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

var ErrCORSWildcardCredentials = errors.New(`cors: origin "*" cannot be combined with credentials`)

type CORSConfig struct {
	// AllowedOrigins holds exact origins, "*" or "*.example.com" patterns.
	// An empty list disables CORS.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig allows the given origins to send cookies. No origins
// means no cross-origin access.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", SessionHeader, TwoFactorCodeHeader, "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
}

func (c CORSConfig) Validate() error {
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		return ErrCORSWildcardCredentials
	}
	return nil
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin. A
// bare "*" entry never matches when credentials are allowed.
func (c CORSConfig) allowOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	for _, allowed := range c.AllowedOrigins {
		switch {
		case allowed == "*":
			if !c.AllowCredentials {
				return "*", true
			}
		case allowed == origin:
			return origin, true
		case strings.HasPrefix(allowed, "*.") && strings.HasSuffix(origin, allowed[1:]):
			return origin, true
		}
	}
	return "", false
}

// CORS echoes allowed origins back so cookies work cross-origin, and answers
// preflight requests directly.
func CORS(cfg CORSConfig) Middleware {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allow, ok := cfg.allowOrigin(r.Header.Get("Origin"))
			if ok {
				h := w.Header()
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Origin", allow)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Expose-Headers", TwoFactorRequiredHeader+", X-Request-ID, Retry-After")

				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					h.Set("Access-Control-Allow-Methods", methods)
					h.Set("Access-Control-Allow-Headers", headers)
					h.Set("Access-Control-Max-Age", maxAge)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
