package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AmmannChristian/go-apicall/config"
	"github.com/AmmannChristian/go-apicall/internal/testutil"
	"github.com/AmmannChristian/go-apicall/oauth2client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticAcquirer struct {
	token string
	err   error
	calls int
}

func (s *staticAcquirer) AcquireInteractive(context.Context, []string) (oauth2client.Token, error) {
	s.calls++
	return oauth2client.Token{AccessToken: s.token}, s.err
}

func factory(acq oauth2client.TokenAcquirer) oauth2client.ClientFactory {
	return func(config.Settings) (oauth2client.TokenAcquirer, error) { return acq, nil }
}

var baseArgs = []string{
	"--tenant-id", "contoso",
	"--client-id", "client-id",
	"--api-url", "https://api.example.com/ping",
	"--scope", "api://example/read",
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvTenantID, config.EnvClientID, config.EnvAPIURL, config.EnvScopes, config.EnvRedirectURI,
		config.EnvAuthorityHost, config.EnvProvider, config.EnvTimeout, config.EnvCAFile,
		config.EnvLogEnv, config.EnvLogLevel,
	} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, ctx context.Context, deps Deps, args ...string) (int, string, string) {
	t.Helper()
	isolateEnv(t)

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	var stdout, stderr bytes.Buffer
	code := Execute(ctx, args, &stdout, &stderr, deps)
	return code, stdout.String(), stderr.String()
}

func TestExecute_Success(t *testing.T) {
	rec := &testutil.RecordingTransport{Next: testutil.StaticJSONResponse(`{"key":"value"}`)}
	acq := &staticAcquirer{token: "abc"}

	code, stdout, stderr := execute(t, context.Background(), Deps{ClientFactory: factory(acq), Transport: rec}, baseArgs...)

	assert.Equal(t, 0, code)
	assert.Equal(t, "{\n  \"key\": \"value\"\n}\n", stdout)
	assert.Empty(t, stderr)

	require.Len(t, rec.Requests(), 1)
	assert.Equal(t, "Bearer abc", rec.Requests()[0].Header.Get("Authorization"))
	assert.Equal(t, 1, acq.calls)
}

func TestExecute_APIErrorStatus(t *testing.T) {
	acq := &staticAcquirer{token: "abc"}
	deps := Deps{ClientFactory: factory(acq), Transport: testutil.Respond(http.StatusInternalServerError, "oops")}

	code, stdout, stderr := execute(t, context.Background(), deps, baseArgs...)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "Error: api returned status 500 Internal Server Error\n", stderr)
	assert.Equal(t, 1, acq.calls, "authentication is not retried")
}

func TestExecute_AuthenticationFailure(t *testing.T) {
	rec := &testutil.RecordingTransport{Next: testutil.StaticJSONResponse(`{}`)}
	acq := &staticAcquirer{err: &oauth2client.ProviderError{Provider: "msal", Err: errors.New("AADSTS70000: invalid grant")}}

	code, stdout, stderr := execute(t, context.Background(), Deps{ClientFactory: factory(acq), Transport: rec}, baseArgs...)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: authentication failed")
	assert.Empty(t, rec.Requests(), "api is never called")
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, stdout, stderr := execute(t, ctx, Deps{ClientFactory: factory(&staticAcquirer{token: "abc"}), Transport: testutil.StaticJSONResponse(`{}`)}, baseArgs...)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "Error: operation cancelled\n", stderr)
}

func TestExecute_InvalidConfig(t *testing.T) {
	code, stdout, stderr := execute(t, context.Background(), Deps{ClientFactory: factory(&staticAcquirer{token: "abc"})}, "--api-url", "https://api.example.com")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "tenant id is required")
	assert.Contains(t, stderr, "client id is required")
}

func TestExecute_RejectsPositionalArgs(t *testing.T) {
	code, _, stderr := execute(t, context.Background(), Deps{}, append([]string{"extra"}, baseArgs...)...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
}

func TestNewRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand(Deps{})

	for _, name := range []string{"config", "env-file", "tenant-id", "client-id", "api-url", "scope", "redirect-uri", "authority-host", "provider", "timeout", "ca-file", "log-level", "log-env", "trace", "insecure-skip-verify", "no-redirects"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestExecute_LogsDoNotRepeatFailure(t *testing.T) {
	isolateEnv(t)
	acq := &staticAcquirer{err: errors.New("secret internal cause: listener exploded")}
	deps := Deps{ClientFactory: factory(acq), Transport: testutil.StaticJSONResponse(`{}`)}

	var stdout, stderr bytes.Buffer
	args := append([]string{"--log-env", "prod", "--log-level", "info"}, baseArgs...)
	code := Execute(context.Background(), args, &stdout, &stderr, deps)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), "secret internal cause")
	assert.NotContains(t, stderr.String(), `"level":"error"`)
	assert.Equal(t, 1, strings.Count(stderr.String(), "Error:"))
	assert.True(t, strings.HasSuffix(stderr.String(), "Error: unexpected error during authentication\n"), stderr.String())
}

func TestExecute_InsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)

	args := []string{"--tenant-id", "contoso", "--client-id", "client-id", "--api-url", srv.URL, "--scope", "api://example/read"}
	deps := Deps{ClientFactory: factory(&staticAcquirer{token: "abc"})}

	code, stdout, stderr := execute(t, context.Background(), deps, args...)
	assert.Equal(t, 1, code, "self-signed certificate is rejected by default")
	assert.Empty(t, stdout)
	assert.Equal(t, "Error: request to "+srv.URL+" failed\n", stderr)

	code, stdout, stderr = execute(t, context.Background(), deps, append(args, "--insecure-skip-verify")...)
	assert.Equal(t, 0, code)
	assert.Equal(t, "{\n  \"ok\": true\n}\n", stdout)
	assert.Empty(t, stderr)
}

func TestExecute_NoRedirects(t *testing.T) {
	rec := &testutil.RecordingTransport{Next: testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := testutil.Respond(http.StatusFound, "")(req)
		resp.Header.Set("Location", "https://api.example.com/elsewhere")
		return resp, err
	})}
	deps := Deps{ClientFactory: factory(&staticAcquirer{token: "abc"}), Transport: rec}

	code, stdout, stderr := execute(t, context.Background(), deps, append([]string{"--no-redirects"}, baseArgs...)...)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "Error: api returned status 302 Found\n", stderr)
	assert.Len(t, rec.Requests(), 1)
}

func TestExecute_CAFileWithCustomTransport(t *testing.T) {
	deps := Deps{ClientFactory: factory(&staticAcquirer{token: "abc"}), Transport: testutil.StaticJSONResponse(`{}`)}

	code, _, stderr := execute(t, context.Background(), deps, append([]string{"--ca-file", "/etc/ssl/custom.pem"}, baseArgs...)...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "TLS options cannot be combined with a custom base transport")
}
