package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"

	"github.com/stretchr/testify/require"
)

// Register, log in, enroll, then walk a sensitive call through each outcome.
func TestGate_EndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, "u1@example.com", "correct horse", "U1")
	require.NoError(t, err)

	u1, err := env.users.Login(ctx, "U1@example.com", "correct horse")
	require.NoError(t, err)
	s1, err := env.sessions.Create(ctx, u1, domain.AuthMethodPassword)
	require.NoError(t, err)
	require.Equal(t, env.clock.Now().Add(time.Hour), s1.ExpiresAt)

	enr, err := env.twoFactor.BeginSetup(ctx, u1)
	require.NoError(t, err)
	require.NoError(t, env.twoFactor.VerifySetup(ctx, u1, codeAt(t, enr.Secret, env.clock.Now())))

	// Sensitive route, no code.
	_, _, err = env.gate.Authorize(ctx, s1.ID, "", true)
	require.ErrorIs(t, err, ErrMFARequired)

	// Sensitive route, wrong code.
	_, _, err = env.gate.Authorize(ctx, s1.ID, wrongCodeAt(t, enr.Secret, env.clock.Now()), true)
	require.ErrorIs(t, err, ErrMFAInvalid)

	// Sensitive route, correct code.
	got, sess, err := env.gate.Authorize(ctx, s1.ID, codeAt(t, enr.Secret, env.clock.Now()), true)
	require.NoError(t, err)
	require.Equal(t, u1.ID, got.ID)
	require.Equal(t, s1.ID, sess.ID)

	// Session-only routes do not ask 2FA users for a code.
	_, _, err = env.gate.Authorize(ctx, s1.ID, "", false)
	require.NoError(t, err)
}

func TestGate_ReplayedCodeAuthorizesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "gate-replay@example.com")
	secret := enroll(t, env, u)

	sess, err := env.sessions.Create(ctx, u, domain.AuthMethodPassword)
	require.NoError(t, err)

	code := codeAt(t, secret, env.clock.Now())
	_, _, err = env.gate.Authorize(ctx, sess.ID, code, true)
	require.NoError(t, err)
	_, _, err = env.gate.Authorize(ctx, sess.ID, code, true)
	require.ErrorIs(t, err, ErrMFAInvalid)
}

func TestGate_SessionErrorsFailClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "gate-exp@example.com")

	_, _, err := env.gate.Authorize(ctx, "", "", false)
	require.ErrorIs(t, err, ErrSessionNotFound)

	sess, err := env.sessions.Create(ctx, u, domain.AuthMethodPassword)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	_, _, err = env.gate.Authorize(ctx, sess.ID, "", false)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestGate_NoTwoFactorAccountPassesSensitiveRoute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "plain@example.com")
	sess, err := env.sessions.Create(ctx, u, domain.AuthMethodPassword)
	require.NoError(t, err)

	_, _, err = env.gate.Authorize(ctx, sess.ID, "", true)
	require.NoError(t, err)
}
