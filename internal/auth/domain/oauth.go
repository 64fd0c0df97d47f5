package domain

import "time"

// OAuthProfile is what a provider tells us about the person after a code exchange.
type OAuthProfile struct {
	Provider   AuthMethod
	ExternalID string
	Email      string
	Name       string
	Avatar     string

	// EmailVerified is set only when the provider vouches for Email. An
	// unverified email may seed a new account but never links to an
	// existing one.
	EmailVerified bool
}

// OAuthIdentity links a provider account to a local user.
type OAuthIdentity struct {
	Provider   AuthMethod
	ExternalID string
	UserID     string
	CreatedAt  time.Time
}
