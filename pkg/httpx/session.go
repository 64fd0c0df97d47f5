package httpx

import (
	"net/http"
	"strings"
	"time"
)

const (
	// SessionCookieName carries the opaque session id for browser clients.
	SessionCookieName = "session_id"

	// SessionHeader is an alternative to the cookie for non-browser clients
	// that cannot use "Authorization: Bearer".
	SessionHeader = "X-Session-ID"

	// TwoFactorCodeHeader carries the TOTP code on routes that require it.
	TwoFactorCodeHeader = "X-MFA-Code"

	// TwoFactorRequiredHeader is set on 403 responses asking for a code.
	TwoFactorRequiredHeader = "X-MFA-Required"
)

// SessionIDFromRequest extracts the session id from the bearer token, the
// session header or the session cookie, in that order.
func SessionIDFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if scheme, token, ok := strings.Cut(authz, " "); ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	if v := strings.TrimSpace(r.Header.Get(SessionHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// TwoFactorCodeFromRequest returns the submitted TOTP code with whitespace removed.
func TwoFactorCodeFromRequest(r *http.Request) string {
	return strings.ReplaceAll(strings.TrimSpace(r.Header.Get(TwoFactorCodeHeader)), " ", "")
}

// SetSessionCookie writes the HttpOnly session cookie.
func SetSessionCookie(w http.ResponseWriter, id string, expires time.Time, now time.Time, secure bool) {
	maxAge := int(expires.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
