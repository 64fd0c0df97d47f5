package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

type principalKey struct{}

// principal is the authenticated caller of a gated route.
type principal struct {
	User    domain.User
	Session domain.Session
}

func withPrincipal(ctx context.Context, p principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// principalFrom returns the caller set by SessionGate.
func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

// SessionGate authorizes requests through gate. With twoFactor set, users who
// have two-factor enabled must also send a valid X-MFA-Code.
func SessionGate(gate *service.Gate, twoFactor bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID := httpx.SessionIDFromRequest(r)
			if sessionID == "" {
				writeError(w, r, service.ErrSessionNotFound)
				return
			}

			user, sess, err := gate.Authorize(ctx, sessionID, httpx.TwoFactorCodeFromRequest(r), twoFactor)
			if err != nil {
				slogx.FromContext(ctx).Debug("request not authorized", "err", err)
				writeError(w, r, err)
				return
			}

			ctx = httpx.WithUserID(ctx, user.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeySessionID, sess.Hash)
			ctx = slogx.With(ctx, "user_id", user.ID)
			ctx = withPrincipal(ctx, principal{User: user, Session: sess})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
