package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"

	"github.com/google/uuid"
)

var ErrInvalidState = errors.New("invalid oauth state")

// StateCodec issues and checks the signed "state" parameter. The nonce inside
// it must also come back in the browser's nonce cookie, tying the callback to
// the browser that started the flow.
type StateCodec struct {
	signer   *jwtx.EdDSASigner
	verifier *jwtx.EdDSAVerifier
	issuer   string

	TTL time.Duration
	Now func() time.Time
}

func NewStateCodec(signer *jwtx.EdDSASigner, issuer string) *StateCodec {
	c := &StateCodec{
		signer:   signer,
		verifier: jwtx.NewVerifierEdDSA(signer.Public(), issuer),
		issuer:   issuer,
		TTL:      jwtx.DefaultStateTTL,
		Now:      time.Now,
	}
	c.verifier.Now = func() time.Time { return c.Now() }
	c.verifier.Leeway = 5 * time.Second
	return c
}

// Issue returns a signed state for provider and the nonce to store in a cookie.
func (c *StateCodec) Issue(provider, returnTo string) (state, nonce string, err error) {
	nonce = uuid.NewString()
	claims := jwtx.NewStateClaims(c.issuer, provider, nonce, returnTo, c.TTL, c.Now())
	state, err = c.signer.Sign(claims)
	if err != nil {
		return "", "", fmt.Errorf("sign state: %w", err)
	}
	return state, nonce, nil
}

// Verify checks the signature and expiry of state and that it was issued for
// provider and the browser holding nonce.
func (c *StateCodec) Verify(state, provider, nonce string) (*jwtx.StateClaims, error) {
	claims, err := c.verifier.VerifyState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.Provider != provider {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}
	if nonce == "" || !cryptox.Equal(claims.Nonce, nonce) {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrInvalidState)
	}
	return claims, nil
}
