package domain

import (
	"strings"
	"time"
)

// AuthMethod records how a user (or a session) was primarily authenticated.
type AuthMethod string

const (
	AuthMethodPassword  AuthMethod = "password"
	AuthMethodGoogle    AuthMethod = "google"
	AuthMethodMicrosoft AuthMethod = "microsoft"
	AuthMethodGitHub    AuthMethod = "github"
)

// Valid reports whether m is one of the known methods.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthMethodPassword, AuthMethodGoogle, AuthMethodMicrosoft, AuthMethodGitHub:
		return true
	}
	return false
}

const DefaultSubscriptionTier = "Free"

type User struct {
	ID           string
	Email        string // unique, lower-cased
	Name         string
	Avatar       string
	PasswordHash string // argon2id PHC string, empty for OAuth-only accounts
	AuthMethod   AuthMethod

	// TwoFactorSecret is the sealed TOTP seed. While TwoFactorEnabled is false
	// a non-nil value is an enrollment that has not been verified yet.
	TwoFactorSecret   *string
	TwoFactorEnabled  bool
	TwoFactorLastStep *int64 // last TOTP time step accepted, for replay protection

	SubscriptionTier string
	Credits          int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TwoFactorPending reports whether a setup was started but not verified.
func (u User) TwoFactorPending() bool {
	return !u.TwoFactorEnabled && u.TwoFactorSecret != nil && *u.TwoFactorSecret != ""
}

// HasPassword reports whether the account can log in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
