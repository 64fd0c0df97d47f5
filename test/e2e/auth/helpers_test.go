//go:build e2e

package auth_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/pkg/authsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, account creation and assertions.
 */

const (
	testImageName = "gatekeep-auth-test:latest"
	redisImage    = "redis:7-alpine"

	testPassword = "Sup3rSecret!"
)

// relaxedLimits keeps the strict and moderate profiles out of the way of
// tests that make many rapid requests.
var relaxedLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

func baseEnv(extra map[string]string) map[string]string {
	env := map[string]string{
		"AUTH_APP_NAME": "Gatekeep E2E",
		"ENV":           "test",
		"LOG_LEVEL":     "info",
		"LOG_FORMAT":    "json",
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

func startAuth(t *testing.T, env map[string]string, networks []string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Networks:     networks,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// setupAuthContainer starts the service on sqlite with relaxed rate limits.
func setupAuthContainer(t *testing.T) string {
	t.Helper()
	return startAuth(t, baseEnv(relaxedLimits), nil)
}

// setupAuthContainerWithDefaultRateLimits uses the production limits, for
// tests that check rate limiting itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) string {
	t.Helper()
	return startAuth(t, baseEnv(nil), nil)
}

// setupAuthWithRedis starts redis and the service on a shared network with
// sessions and rate limits kept in redis.
func setupAuthWithRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	net, err := network.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = net.Remove(ctx) })

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          redisImage,
			ExposedPorts:   []string{"6379/tcp"},
			Networks:       []string{net.Name},
			NetworkAliases: map[string][]string{net.Name: {"redis"}},
			WaitingFor:     wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	env := baseEnv(relaxedLimits)
	env["AUTH_SESSION_BACKEND"] = "redis"
	env["AUTH_RATELIMIT_BACKEND"] = "redis"
	env["AUTH_REDIS_ADDR"] = "redis:6379"

	return startAuth(t, env, []string{net.Name})
}

// registerUser creates an account with a unique email and returns its session.
func registerUser(t *testing.T, client *authsdk.SDKClient, name string) (*authsdk.Session, *authsdk.Profile) {
	t.Helper()

	email := fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano())
	session, profile, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email:    email,
		Password: testPassword,
		Name:     name,
	})
	require.NoError(t, err, "Register should succeed")
	require.NotEmpty(t, session.ID())
	require.Equal(t, email, profile.Email)
	return session, profile
}

// enrollTOTP runs setup and verify and returns the shared secret.
func enrollTOTP(t *testing.T, session *authsdk.Session) string {
	t.Helper()

	setup, err := session.SetupTOTP(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.VerifyTOTP(t.Context(), code))
	return setup.Secret
}

// nextStepCode waits for the next 30 second step so the code has not been
// used yet, then returns it.
func nextStepCode(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now()
	time.Sleep(time.Duration(30-now.Unix()%30)*time.Second + 100*time.Millisecond)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
