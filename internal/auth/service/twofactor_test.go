package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"

	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, env *testEnv, email string) domain.User {
	t.Helper()
	u, err := env.users.Register(context.Background(), email, "password123", "Test User")
	require.NoError(t, err)
	return u
}

func enroll(t *testing.T, env *testEnv, u domain.User) string {
	t.Helper()
	ctx := context.Background()
	enr, err := env.twoFactor.BeginSetup(ctx, u)
	require.NoError(t, err)
	require.NoError(t, env.twoFactor.VerifySetup(ctx, u, codeAt(t, enr.Secret, env.clock.Now())))
	return enr.Secret
}

func TestTwoFactor_BeginSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "setup@example.com")

	enr, err := env.twoFactor.BeginSetup(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, enr.Secret)
	require.True(t, strings.HasPrefix(enr.URI, "otpauth://totp/"))
	require.Contains(t, enr.URI, "secret="+enr.Secret)
	require.Contains(t, enr.URI, "issuer=Gatekeep")
	require.True(t, strings.HasPrefix(enr.Image, "data:image/png;base64,"))
	require.Equal(t, "setup@example.com", enr.Account)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, stored.TwoFactorPending())
	require.NotContains(t, *stored.TwoFactorSecret, enr.Secret, "secret is sealed at rest")
}

func TestTwoFactor_SetupThenVerifySucceedsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "verify@example.com")

	enr, err := env.twoFactor.BeginSetup(ctx, u)
	require.NoError(t, err)

	code := codeAt(t, enr.Secret, env.clock.Now())
	require.NoError(t, env.twoFactor.VerifySetup(ctx, u, code))
	require.ErrorIs(t, env.twoFactor.VerifySetup(ctx, u, code), ErrAlreadyEnrolled)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, stored.TwoFactorEnabled)

	_, err = env.twoFactor.BeginSetup(ctx, u)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestTwoFactor_VerifyWithForeignSecretFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "foreign@example.com")
	other := registerUser(t, env, "other@example.com")

	_, err := env.twoFactor.BeginSetup(ctx, u)
	require.NoError(t, err)
	otherEnr, err := env.twoFactor.BeginSetup(ctx, other)
	require.NoError(t, err)

	code := codeAt(t, otherEnr.Secret, env.clock.Now())
	require.ErrorIs(t, env.twoFactor.VerifySetup(ctx, u, code), ErrInvalidCode)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, stored.TwoFactorEnabled)
}

func TestTwoFactor_VerifyWithoutSetup(t *testing.T) {
	env := newTestEnv(t)
	u := registerUser(t, env, "nosetup@example.com")
	require.ErrorIs(t, env.twoFactor.VerifySetup(context.Background(), u, "123456"), ErrNotEnrolled)
}

func TestTwoFactor_RestartedSetupInvalidatesOldSecret(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "restart@example.com")

	first, err := env.twoFactor.BeginSetup(ctx, u)
	require.NoError(t, err)
	second, err := env.twoFactor.BeginSetup(ctx, u)
	require.NoError(t, err)
	require.NotEqual(t, first.Secret, second.Secret)

	require.ErrorIs(t, env.twoFactor.VerifySetup(ctx, u, codeAt(t, first.Secret, env.clock.Now())), ErrInvalidCode)
	require.NoError(t, env.twoFactor.VerifySetup(ctx, u, codeAt(t, second.Secret, env.clock.Now())))
}

func TestTwoFactor_AcceptsAdjacentSteps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "drift@example.com")
	secret := enroll(t, env, u)

	now := env.clock.Now()
	require.NoError(t, env.twoFactor.Validate(ctx, u, codeAt(t, secret, now.Add(30*time.Second))))

	env.clock.Advance(2 * time.Minute)
	now = env.clock.Now()
	require.NoError(t, env.twoFactor.Validate(ctx, u, codeAt(t, secret, now.Add(-30*time.Second))))

	require.ErrorIs(t, env.twoFactor.Validate(ctx, u, codeAt(t, secret, now.Add(-2*time.Minute))), ErrInvalidCode)
	require.ErrorIs(t, env.twoFactor.Validate(ctx, u, "12345"), ErrInvalidCode)
}

func TestTwoFactor_ReplayRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "replay@example.com")
	secret := enroll(t, env, u)

	code := codeAt(t, secret, env.clock.Now())
	require.NoError(t, env.twoFactor.Validate(ctx, u, code))
	require.ErrorIs(t, env.twoFactor.Validate(ctx, u, code), ErrCodeReplayed)

	// Still inside the acceptance window one step later, but already used.
	env.clock.Advance(30 * time.Second)
	require.ErrorIs(t, env.twoFactor.Validate(ctx, u, code), ErrCodeReplayed)

	require.NoError(t, env.twoFactor.Validate(ctx, u, codeAt(t, secret, env.clock.Now())))
}

func TestTwoFactor_DisableThenValidateFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "disable@example.com")
	secret := enroll(t, env, u)

	env.clock.Advance(30 * time.Second)
	code := codeAt(t, secret, env.clock.Now())

	require.NoError(t, env.twoFactor.Disable(ctx, u))
	require.NoError(t, env.twoFactor.Disable(ctx, u))

	require.ErrorIs(t, env.twoFactor.Validate(ctx, u, code), ErrNotEnrolled)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, stored.TwoFactorEnabled)
	require.Nil(t, stored.TwoFactorSecret)
}
