package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/AmmannChristian/go-apicall/config"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const providerOAuth2 = "oauth2"

const callbackPage = `<html><body><p>Authentication complete. You can close this window.</p></body></html>`

// LoopbackClient runs the authorization code flow with PKCE, receiving the code on a loopback
// listener at the configured redirect URI.
type LoopbackClient struct {
	config     oauth2.Config
	httpClient *http.Client
	openURL    func(string) error
	listen     func(network, address string) (net.Listener, error)
}

// LoopbackOption configures a LoopbackClient.
type LoopbackOption func(*LoopbackClient)

// WithBrowser replaces the function that presents the authorization URL to the user.
func WithBrowser(open func(authURL string) error) LoopbackOption {
	return func(c *LoopbackClient) {
		c.openURL = open
	}
}

// WithTokenHTTPClient sets the client used for the code exchange.
func WithTokenHTTPClient(client *http.Client) LoopbackOption {
	return func(c *LoopbackClient) {
		c.httpClient = client
	}
}

// NewLoopbackClient builds a client for the tenant's authorize and token endpoints.
func NewLoopbackClient(settings config.Settings, opts ...LoopbackOption) (*LoopbackClient, error) {
	redirect, err := url.Parse(settings.RedirectURI())
	if err != nil {
		return nil, fmt.Errorf("oauth2client: parse redirect uri: %w", err)
	}
	if redirect.Scheme != "http" || redirect.Port() == "" {
		return nil, fmt.Errorf("oauth2client: redirect uri %q must be http with an explicit port", settings.RedirectURI())
	}

	endpoint := microsoft.AzureADEndpoint(settings.TenantID())
	if settings.AuthorityHost() != config.DefaultAuthorityHost {
		endpoint = oauth2.Endpoint{
			AuthURL:  settings.Authority() + "/oauth2/v2.0/authorize",
			TokenURL: settings.Authority() + "/oauth2/v2.0/token",
		}
	}

	c := &LoopbackClient{
		config: oauth2.Config{
			ClientID:    settings.ClientID(),
			Endpoint:    endpoint,
			RedirectURL: settings.RedirectURI(),
		},
		httpClient: &http.Client{Timeout: settings.Timeout()},
		openURL:    openInBrowser,
		listen:     net.Listen,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type callbackResult struct {
	code string
	err  error
}

// AcquireInteractive implements TokenAcquirer.
func (c *LoopbackClient) AcquireInteractive(ctx context.Context, scopes []string) (Token, error) {
	redirect, err := url.Parse(c.config.RedirectURL)
	if err != nil {
		return Token{}, fmt.Errorf("oauth2client: parse redirect uri: %w", err)
	}

	ln, err := c.listen("tcp", redirect.Host)
	if err != nil {
		return Token{}, fmt.Errorf("oauth2client: listen on %s: %w", redirect.Host, err)
	}
	defer ln.Close()

	// Port 0 asks the OS for a free port; the redirect must carry the real one.
	if redirect.Port() == "0" {
		redirect.Host = ln.Addr().String()
	}

	cfg := c.config
	cfg.Scopes = scopes
	cfg.RedirectURL = redirect.String()

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(redirect.Path, state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	if err := c.openURL(authURL); err != nil {
		return Token{}, fmt.Errorf("oauth2client: open authorization url: %w", err)
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return Token{}, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return Token{}, &ProviderError{Provider: providerOAuth2, Err: res.err}
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.Exchange(exchangeCtx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return Token{}, &ProviderError{Provider: providerOAuth2, Err: err}
		}
		return Token{}, err
	}

	return Token{AccessToken: tok.AccessToken, ExpiresOn: tok.Expiry}, nil
}

func callbackHandler(path, state string, results chan<- callbackResult) http.Handler {
	if path == "" {
		path = "/"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("%s: %s", q.Get("error"), q.Get("error_description"))
		case q.Get("state") != state:
			res.err = errors.New("state mismatch in authorization response")
		case q.Get("code") == "":
			res.err = errors.New("authorization response carried no code")
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(callbackPage))
	})
}

func openInBrowser(authURL string) error {
	browser.Stdout = os.Stderr
	if err := browser.OpenURL(authURL); err != nil {
		fmt.Fprintf(os.Stderr, "Open the following URL in your browser to sign in:\n%s\n", authURL)
	}
	return nil
}
