package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	// Error is the machine readable code (e.g. "session_expired", "mfa_required")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest creates a password account.
type RegisterRequest struct {
	// Email is the login address, stored lower-cased
	Email string `json:"email"`

	// Password must be at least 8 characters
	Password string `json:"password"`

	// Name is the display name
	Name string `json:"name,omitempty"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile describes the authenticated user. SessionID and SessionExpiry are
// set on responses that mint a session.
type Profile struct {
	SessionID        string    `json:"session_id,omitempty"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Avatar           string    `json:"avatar,omitempty"`
	AuthMethod       string    `json:"auth_method"`
	SessionExpiry    time.Time `json:"session_expiry"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	SubscriptionTier string    `json:"subscription_tier"`
	Credits          int64     `json:"credits"`
}

// UpdateProfileRequest changes the fields that are set.
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// RevokeSessionsResponse reports how many sessions were removed.
type RevokeSessionsResponse struct {
	Revoked int64 `json:"revoked"`
}

// ProvidersResponse lists the OAuth providers the service has credentials for.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// ============================================================================
// Two-Factor Types
// ============================================================================

// TOTPSetupResponse is returned once when setup starts. The secret is not
// retrievable afterwards.
type TOTPSetupResponse struct {
	// Secret is the base32 seed for manual entry
	Secret string `json:"secret"`

	// OTPAuthURL is the otpauth:// provisioning URI
	OTPAuthURL string `json:"otpauth_url"`

	// QRCode is a data:image/png;base64 QR code of OTPAuthURL
	QRCode string `json:"qr_code"`

	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// TOTPCodeRequest carries a six digit code.
type TOTPCodeRequest struct {
	Code string `json:"code"`
}

// TOTPVerifyResponse confirms enrollment.
type TOTPVerifyResponse struct {
	TwoFactorEnabled bool `json:"two_factor_enabled"`
}

// TOTPValidateResponse confirms a code was accepted.
type TOTPValidateResponse struct {
	Valid bool `json:"valid"`
}

// ============================================================================
// Health Check Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains the status of individual components (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the credential store connection status
	Database string `json:"database"`

	// Sessions indicates the session backend status
	Sessions string `json:"sessions"`
}

// ServiceInfo is served at the root path.
type ServiceInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}
