package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validValues() Values {
	return Values{
		TenantID: "contoso",
		ClientID: "11111111-2222-3333-4444-555555555555",
		APIURL:   "https://api.example.com/ping",
		Scopes:   []string{"api://example/.default"},
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(validValues())
	require.NoError(t, err)

	assert.Equal(t, "contoso", s.TenantID())
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", s.ClientID())
	assert.Equal(t, "https://api.example.com/ping", s.APIURL())
	assert.Equal(t, []string{"api://example/.default"}, s.Scopes())
	assert.Equal(t, DefaultRedirectURI, s.RedirectURI())
	assert.Equal(t, DefaultAuthorityHost, s.AuthorityHost())
	assert.Equal(t, "https://login.microsoftonline.com/contoso", s.Authority())
	assert.Equal(t, ProviderMSAL, s.Provider())
	assert.Equal(t, DefaultTimeout, s.Timeout())
	assert.False(t, s.IsZero())
}

func TestNew_ScopesNeverNil(t *testing.T) {
	v := validValues()
	v.Scopes = nil

	s, err := New(v)
	require.NoError(t, err)

	assert.NotNil(t, s.Scopes())
	assert.Empty(t, s.Scopes())
}

func TestNew_ScopesAreCopied(t *testing.T) {
	v := validValues()
	v.Scopes = []string{"a", " ", "b"}

	s, err := New(v)
	require.NoError(t, err)

	v.Scopes[0] = "mutated"
	got := s.Scopes()
	got[1] = "mutated"

	assert.Equal(t, []string{"a", "b"}, s.Scopes())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Values)
		wantErr string
	}{
		{"missing tenant", func(v *Values) { v.TenantID = "  " }, "tenant id is required"},
		{"missing client", func(v *Values) { v.ClientID = "" }, "client id is required"},
		{"missing api url", func(v *Values) { v.APIURL = "" }, "api url is required"},
		{"relative api url", func(v *Values) { v.APIURL = "/ping" }, "api url"},
		{"non http api url", func(v *Values) { v.APIURL = "ftp://example.com/x" }, "must use http or https"},
		{"relative redirect", func(v *Values) { v.RedirectURI = "callback" }, "redirect uri"},
		{"unknown provider", func(v *Values) { v.Provider = "saml" }, "unknown provider"},
		{"negative timeout", func(v *Values) { v.Timeout = -time.Second }, "timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validValues()
			tt.mutate(&v)

			s, err := New(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, s.IsZero())
		})
	}
}

func TestNew_ReportsAllProblems(t *testing.T) {
	_, err := New(Values{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "tenant id is required")
	assert.Contains(t, err.Error(), "client id is required")
	assert.Contains(t, err.Error(), "api url is required")
}

func TestSplitScopes(t *testing.T) {
	assert.Equal(t, []string{"openid", "profile", "api://x/.default"}, SplitScopes("openid, profile\tapi://x/.default"))
	assert.Empty(t, SplitScopes(" , "))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvTenantID, EnvClientID, EnvAPIURL, EnvScopes, EnvRedirectURI, EnvAuthorityHost,
		EnvProvider, EnvTimeout, EnvCAFile, EnvLogEnv, EnvLogLevel,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "apicall.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
tenant_id: file-tenant
client_id: file-client
api_url: https://file.example.com/api
scopes: [file.read]
timeout: 5s
log:
  level: debug
`), 0o600))

	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("APICALL_FILE_ONLY=1\n"), 0o600))

	t.Cleanup(func() { _ = os.Unsetenv("APICALL_FILE_ONLY") })
	t.Setenv(EnvClientID, "env-client")
	t.Setenv(EnvScopes, "env.read env.write")

	s, logging, err := Load(LoadOptions{
		ConfigFile: cfgPath,
		EnvFile:    envPath,
		Overrides:  File{Values: Values{APIURL: "https://flag.example.com/api"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "file-tenant", s.TenantID())
	assert.Equal(t, "env-client", s.ClientID())
	assert.Equal(t, "https://flag.example.com/api", s.APIURL())
	assert.Equal(t, []string{"env.read", "env.write"}, s.Scopes())
	assert.Equal(t, 5*time.Second, s.Timeout())
	assert.Equal(t, "debug", logging.Level)
	assert.Equal(t, "1", os.Getenv("APICALL_FILE_ONLY"))
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, _, err := Load(LoadOptions{ConfigFile: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tenant_id: [unterminated"), 0o600))
	_, _, err = Load(LoadOptions{ConfigFile: bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")

	_, _, err = Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	require.Error(t, err)

	t.Setenv(EnvTimeout, "soon")
	_, _, err = Load(LoadOptions{Overrides: File{Values: validValues()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)
}
