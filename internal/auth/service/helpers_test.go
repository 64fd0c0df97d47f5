package service

import (
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source shared by all services in a test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	// Mid-step, so ±1 step never crosses a test boundary by accident.
	return &fakeClock{t: time.Unix(1_700_000_025, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	clock     *fakeClock
	store     *sqlite.Store
	users     *UserService
	sessions  *SessionService
	twoFactor *TwoFactorService
	gate      *Gate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	box, err := cryptox.NewSecretBox([]byte("test-secret-key"))
	require.NoError(t, err)

	clock := newFakeClock()
	env := &testEnv{
		clock: clock,
		store: st,
		users: &UserService{
			Store:  st,
			Hasher: cryptox.NewPasswordHasher([]byte("test-pepper")),
			Now:    clock.Now,
		},
		sessions: &SessionService{
			Users:    st.Users(),
			Sessions: st.Sessions(),
			TTL:      time.Hour,
			Now:      clock.Now,
		},
		twoFactor: &TwoFactorService{
			Users:  st.Users(),
			Box:    box,
			Issuer: "Gatekeep Test",
			Now:    clock.Now,
		},
	}
	env.gate = &Gate{Sessions: env.sessions, TwoFactor: env.twoFactor}
	return env
}

// codeAt computes the TOTP code for secret at t.
func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// wrongCodeAt returns a well formed code that matches none of the steps
// accepted at t.
func wrongCodeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	valid := map[string]bool{}
	for _, off := range stepOffsets {
		valid[codeAt(t, secret, at.Add(time.Duration(off*totpPeriod)*time.Second))] = true
	}
	for _, c := range []string{"000000", "123456", "654321", "111111", "999999"} {
		if !valid[c] {
			return c
		}
	}
	t.Fatal("no wrong code available")
	return ""
}
