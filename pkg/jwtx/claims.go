package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultStateTTL bounds how long a user may sit on a provider consent page.
const DefaultStateTTL = 10 * time.Minute

// StateClaims travel through the OAuth "state" parameter. They bind the
// callback to the provider the flow started with and to a browser nonce.
type StateClaims struct {
	jwt.RegisteredClaims

	Provider string `json:"provider"`
	Nonce    string `json:"nonce"`

	// ReturnTo is where the browser goes after a successful callback.
	ReturnTo string `json:"return_to,omitempty"`
}

// NewStateClaims builds claims valid from now for ttl.
func NewStateClaims(issuer, provider, nonce, returnTo string, ttl time.Duration, now time.Time) StateClaims {
	return StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Provider: provider,
		Nonce:    nonce,
		ReturnTo: returnTo,
	}
}
