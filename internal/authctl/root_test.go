package authctl

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/app"
	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// fileOpener reopens the same sqlite file for every command, like separate
// authctl invocations would.
func fileOpener(t *testing.T) (Opener, app.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := app.Config{
		AppName:          "Gatekeep",
		StoreDriver:      app.DriverSQLite,
		DatabaseFile:     dir + "/auth.db",
		SessionBackend:   app.BackendStore,
		RateLimitBackend: app.BackendMemory,
		SessionTTL:       time.Hour,
		PepperFile:       dir + "/pepper",
	}
	return func(ctx context.Context) (*Env, error) { return Open(ctx, cfg) }, cfg
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(open)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	open, _ := fileOpener(t)

	out, err := run(t, open, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "Migrations applied (sqlite)")
}

func TestUserCreateShowAndSetPlan(t *testing.T) {
	open, _ := fileOpener(t)

	out, err := run(t, open, "user", "create", "--email", "Ops@Example.com", "--password", "correct-horse", "--name", "Ops")
	require.NoError(t, err)
	require.Contains(t, out, "Created user ops@example.com")

	_, err = run(t, open, "user", "create", "--email", "ops@example.com", "--password", "correct-horse")
	require.Error(t, err)

	_, err = run(t, open, "user", "set-plan", "--email", "ops@example.com", "--tier", "Pro", "--credits", "250")
	require.NoError(t, err)

	out, err = run(t, open, "--json", "user", "show", "--email", "ops@example.com")
	require.NoError(t, err)

	var v userView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Equal(t, "ops@example.com", v.Email)
	require.Equal(t, "Pro", v.SubscriptionTier)
	require.EqualValues(t, 250, v.Credits)
	require.True(t, v.HasPassword)
	require.False(t, v.TwoFactorEnabled)
}

func TestUserShowUnknown(t *testing.T) {
	open, _ := fileOpener(t)

	_, err := run(t, open, "user", "show", "--email", "ghost@example.com")
	require.Error(t, err)
}

func TestRequiredFlags(t *testing.T) {
	open, _ := fileOpener(t)

	_, err := run(t, open, "user", "create", "--email", "a@example.com")
	require.Error(t, err)
}

func TestMFAResetAndSessionRevoke(t *testing.T) {
	open, cfg := fileOpener(t)
	ctx := t.Context()

	env, err := Open(ctx, cfg)
	require.NoError(t, err)

	u, err := env.Users.Register(ctx, "carol@example.com", "correct-horse", "Carol")
	require.NoError(t, err)

	box, err := cryptox.NewSecretBox([]byte("test-key"))
	require.NoError(t, err)
	sealed, err := box.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	require.NoError(t, env.Store.Users().SetPendingTwoFactor(ctx, u.ID, sealed))
	require.NoError(t, env.Store.Users().EnableTwoFactor(ctx, u.ID, sealed))

	_, err = env.Sessions.Create(ctx, u, domain.AuthMethodPassword)
	require.NoError(t, err)
	_, err = env.Sessions.Create(ctx, u, domain.AuthMethodPassword)
	require.NoError(t, err)
	require.NoError(t, env.Close())

	out, err := run(t, open, "mfa", "reset", "--email", "carol@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Two-factor reset for carol@example.com")

	out, err = run(t, open, "--json", "sessions", "revoke", "--email", "carol@example.com")
	require.NoError(t, err)
	var revoked struct {
		Revoked int64 `json:"revoked"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &revoked))
	require.EqualValues(t, 2, revoked.Revoked)

	out, err = run(t, open, "sessions", "purge")
	require.NoError(t, err)
	require.Contains(t, out, "Purged 0 expired session(s)")

	env, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer env.Close()
	got, err := env.Users.GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.False(t, got.TwoFactorEnabled)
	require.Nil(t, got.TwoFactorSecret)
}

func TestSetPasswordForProviderAccount(t *testing.T) {
	open, cfg := fileOpener(t)
	ctx := t.Context()

	env, err := Open(ctx, cfg)
	require.NoError(t, err)
	_, err = env.Users.FindOrCreateOAuthUser(ctx, domain.OAuthProfile{
		Provider: domain.AuthMethodGitHub, ExternalID: "42", Email: "octo@example.com", EmailVerified: true,
	})
	require.NoError(t, err)
	require.NoError(t, env.Close())

	out, err := run(t, open, "user", "show", "--email", "octo@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Password:    false")
	require.Contains(t, out, "Linked:      github")

	_, err = run(t, open, "user", "set-password", "--email", "octo@example.com", "--password", "short")
	require.Error(t, err)

	out, err = run(t, open, "user", "set-password", "--email", "octo@example.com", "--password", "correct-horse")
	require.NoError(t, err)
	require.Contains(t, out, "Password set for octo@example.com")

	out, err = run(t, open, "--json", "user", "show", "--email", "octo@example.com")
	require.NoError(t, err)
	var v userView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.True(t, v.HasPassword)
	require.Len(t, v.Identities, 1)
	require.Equal(t, "github", v.Identities[0].Provider)
	require.Equal(t, "42", v.Identities[0].ExternalID)

	env, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer env.Close()
	_, err = env.Users.Login(ctx, "octo@example.com", "correct-horse")
	require.NoError(t, err)
}
