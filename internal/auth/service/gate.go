package service

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// Gate decides whether a request may proceed. Whether a route needs a second
// factor is the caller's decision (requireTwoFactor), never the account's:
// session-only routes stay reachable for 2FA users.
type Gate struct {
	Sessions  *SessionService
	TwoFactor *TwoFactorService
	Metrics   *metrics.Metrics
}

// Authorize resolves sessionID and, when requireTwoFactor is set and the user
// has 2FA enabled, validates code. Any failure rejects the request.
func (g *Gate) Authorize(ctx context.Context, sessionID, code string, requireTwoFactor bool) (domain.User, domain.Session, error) {
	user, sess, err := g.Sessions.Resolve(ctx, sessionID)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}

	if !requireTwoFactor || !user.TwoFactorEnabled {
		return user, sess, nil
	}

	if strings.TrimSpace(code) == "" {
		g.Metrics.GateDenied("mfa_required")
		return domain.User{}, domain.Session{}, ErrMFARequired
	}
	if err := g.TwoFactor.Validate(ctx, user, code); err != nil {
		g.Metrics.GateDenied("mfa_invalid")
		slogx.FromContext(ctx).Info("two-factor check failed", "user_id", user.ID, "err", err)
		return domain.User{}, domain.Session{}, ErrMFAInvalid
	}
	return user, sess, nil
}
