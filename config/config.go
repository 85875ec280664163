// Package config holds the immutable settings consumed by the authenticator and the API caller, and
// loads them from a YAML file, a .env file, the environment and explicit overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Provider names accepted in Settings.
const (
	ProviderMSAL   = "msal"
	ProviderOAuth2 = "oauth2"
)

// Defaults applied by Load when a value is not supplied.
const (
	DefaultRedirectURI   = "http://localhost:8400"
	DefaultAuthorityHost = "https://login.microsoftonline.com"
	DefaultTimeout       = 30 * time.Second
)

// Settings is the validated configuration. It is a value type; the scope list is copied on the way in
// and on the way out so a Settings cannot be mutated after New returns it.
type Settings struct {
	tenantID      string
	clientID      string
	apiURL        string
	scopes        []string
	redirectURI   string
	authorityHost string
	provider      string
	timeout       time.Duration
	caFile        string
}

// Values is the raw, unvalidated input to New.
type Values struct {
	TenantID      string        `yaml:"tenant_id"`
	ClientID      string        `yaml:"client_id"`
	APIURL        string        `yaml:"api_url"`
	Scopes        []string      `yaml:"scopes"`
	RedirectURI   string        `yaml:"redirect_uri"`
	AuthorityHost string        `yaml:"authority_host"`
	Provider      string        `yaml:"provider"`
	Timeout       time.Duration `yaml:"timeout"`
	CAFile        string        `yaml:"ca_file"`
}

// New validates v and returns Settings. Empty optional fields take their defaults.
func New(v Values) (Settings, error) {
	s := Settings{
		tenantID:      strings.TrimSpace(v.TenantID),
		clientID:      strings.TrimSpace(v.ClientID),
		apiURL:        strings.TrimSpace(v.APIURL),
		redirectURI:   strings.TrimSpace(v.RedirectURI),
		authorityHost: strings.TrimRight(strings.TrimSpace(v.AuthorityHost), "/"),
		provider:      strings.ToLower(strings.TrimSpace(v.Provider)),
		timeout:       v.Timeout,
		caFile:        strings.TrimSpace(v.CAFile),
		scopes:        make([]string, 0, len(v.Scopes)),
	}
	for _, sc := range v.Scopes {
		if sc = strings.TrimSpace(sc); sc != "" {
			s.scopes = append(s.scopes, sc)
		}
	}

	if s.redirectURI == "" {
		s.redirectURI = DefaultRedirectURI
	}
	if s.authorityHost == "" {
		s.authorityHost = DefaultAuthorityHost
	}
	if s.provider == "" {
		s.provider = ProviderMSAL
	}
	if s.timeout == 0 {
		s.timeout = DefaultTimeout
	}

	var errs []error
	if s.tenantID == "" {
		errs = append(errs, errors.New("tenant id is required"))
	}
	if s.clientID == "" {
		errs = append(errs, errors.New("client id is required"))
	}
	if s.apiURL == "" {
		errs = append(errs, errors.New("api url is required"))
	} else if err := checkHTTPURL(s.apiURL); err != nil {
		errs = append(errs, fmt.Errorf("api url: %w", err))
	}
	if err := checkAbsoluteURL(s.redirectURI); err != nil {
		errs = append(errs, fmt.Errorf("redirect uri: %w", err))
	}
	if err := checkHTTPURL(s.authorityHost); err != nil {
		errs = append(errs, fmt.Errorf("authority host: %w", err))
	}
	if s.provider != ProviderMSAL && s.provider != ProviderOAuth2 {
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", s.provider, ProviderMSAL, ProviderOAuth2))
	}
	if s.timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", s.timeout))
	}
	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	return s, nil
}

func checkAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

func checkHTTPURL(raw string) error {
	if err := checkAbsoluteURL(raw); err != nil {
		return err
	}
	u, _ := url.Parse(raw)
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	return nil
}

// TenantID returns the identity-provider directory.
func (s Settings) TenantID() string { return s.tenantID }

// ClientID returns the registered application id.
func (s Settings) ClientID() string { return s.clientID }

// APIURL returns the endpoint called with the bearer token.
func (s Settings) APIURL() string { return s.apiURL }

// Scopes returns a copy of the requested scopes. It is never nil.
func (s Settings) Scopes() []string {
	out := make([]string, len(s.scopes))
	copy(out, s.scopes)
	return out
}

// RedirectURI returns the callback used by the interactive flow.
func (s Settings) RedirectURI() string { return s.redirectURI }

// AuthorityHost returns the identity-provider host without a trailing slash.
func (s Settings) AuthorityHost() string { return s.authorityHost }

// Authority returns the tenant-scoped authority URL.
func (s Settings) Authority() string { return s.authorityHost + "/" + s.tenantID }

// Provider returns the interactive flow implementation to use.
func (s Settings) Provider() string { return s.provider }

// Timeout returns the HTTP client timeout.
func (s Settings) Timeout() time.Duration { return s.timeout }

// CAFile returns the optional CA bundle for the API's TLS certificate.
func (s Settings) CAFile() string { return s.caFile }

// IsZero reports whether s was never produced by New.
func (s Settings) IsZero() bool { return s.tenantID == "" && s.clientID == "" && s.apiURL == "" }
