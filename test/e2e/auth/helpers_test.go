package auth_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, reading emailed codes from the log mail
 * driver, and assertions.
 */

const (
	testImageName = "smartplant-auth-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	jwtSecret      = "e2e-secret-that-is-at-least-32-bytes-long"
	serviceAPIKey  = "e2e-training-service-key"

	adminUsername = "admin"
	adminEmail    = "admin@smartplant.example"
	adminPassword = "Admin123!"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
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
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // the image might not exist
}

// authEnv is a running auth service container.
type authEnv struct {
	BaseURL   string
	Client    *authsdk.SDKClient
	container testcontainers.Container
}

// setupAuthContainer starts the service with relaxed per-IP limits. Tests
// make many requests from one address, which the production limits would
// refuse. The per-user code limit is not configurable and stays in force.
func setupAuthContainer(t *testing.T) *authEnv {
	t.Helper()
	return startAuthContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_AUTH_REQUESTS":     "1000",
		"RATELIMIT_AUTH_BURST":        "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
}

// setupAuthContainerWithDefaultRateLimits keeps the production limits, for
// the tests that check them.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) *authEnv {
	t.Helper()
	return startAuthContainer(t, nil)
}

func startAuthContainer(t *testing.T, extraEnv map[string]string) *authEnv {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"AUTH_JWT_SECRET":       jwtSecret,
		"AUTH_ISSUER":           "smartplant-auth",
		"BOOTSTRAP_TOKEN":       bootstrapToken,
		"AI_SERVER_API_KEY":     serviceAPIKey,
		"MAIL_DRIVER":           "log",
		"MAIL_POLL_INTERVAL":    "1s",
		"COOKIE_SECURE":         "false",
		"HOUSEKEEPING_INTERVAL": "1h",
		"ENV":                   "test",
		"LOG_LEVEL":             "info",
		"LOG_FORMAT":            "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
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

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	return &authEnv{
		BaseURL:   baseURL,
		Client:    authsdk.NewSDKClient(baseURL),
		container: container,
	}
}

type mailLogLine struct {
	Msg  string `json:"msg"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// codesFor returns every code the log mail driver has "sent" to email, oldest
// first.
func (e *authEnv) codesFor(t *testing.T, email string) []string {
	t.Helper()

	rc, err := e.container.Logs(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	var codes []string
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		start := strings.IndexByte(line, '{')
		if start < 0 {
			continue
		}
		var l mailLogLine
		if err := json.Unmarshal([]byte(line[start:]), &l); err != nil {
			continue
		}
		if !strings.HasPrefix(l.Msg, "mail not sent") || !strings.EqualFold(l.To, email) {
			continue
		}
		if m := codePattern.FindStringSubmatch(l.Body); m != nil {
			codes = append(codes, m[1])
		}
	}
	return codes
}

// waitForCode waits until at least n codes were delivered to email and
// returns the latest one.
func (e *authEnv) waitForCode(t *testing.T, email string, n int) string {
	t.Helper()

	var codes []string
	require.Eventually(t, func() bool {
		codes = e.codesFor(t, email)
		return len(codes) >= n
	}, 15*time.Second, 250*time.Millisecond, "no code delivered to %s", email)
	return codes[len(codes)-1]
}

// bootstrapService creates the first administrator and returns it.
func bootstrapService(t *testing.T, e *authEnv) authsdk.User {
	t.Helper()

	resp, err := e.Client.Bootstrap(t.Context(), bootstrapToken, authsdk.BootstrapRequest{
		AdminUsername: adminUsername,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	require.NoError(t, err, "Bootstrap should succeed")
	require.Equal(t, "admin", resp.User.Role)
	return resp.User
}

// registerUser creates a public account.
func registerUser(t *testing.T, e *authEnv, username, email, password string) authsdk.User {
	t.Helper()

	resp, err := e.Client.Register(t.Context(), authsdk.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err, "Register should succeed")
	return resp.User
}

// performLogin runs both login steps and returns an authenticated session.
func performLogin(t *testing.T, e *authEnv, email, password string) *authsdk.Session {
	t.Helper()
	ctx := t.Context()

	before := len(e.codesFor(t, email))

	challenge, err := e.Client.Login(ctx, email, password)
	require.NoError(t, err, "Login should succeed")
	require.True(t, challenge.RequiresMFA)
	require.NotEmpty(t, challenge.TempToken)

	code := e.waitForCode(t, email, before+1)

	session, err := e.Client.AuthenticateWithCode(ctx, challenge.TempToken, code)
	require.NoError(t, err, "Code verification should succeed")
	require.NotNil(t, session)
	return session
}

// requireStatus checks that err is an APIError with the given status.
func requireStatus(t *testing.T, err error, status int, msgAndArgs ...any) *authsdk.APIError {
	t.Helper()
	require.Error(t, err, msgAndArgs...)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected an APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode, msgAndArgs...)
	return apiErr
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, authsdk.HealthOK, health.Status)
	require.False(t, health.Degraded())
}
