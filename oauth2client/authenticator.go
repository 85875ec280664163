package oauth2client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/AmmannChristian/go-apicall/apperr"
	"github.com/AmmannChristian/go-apicall/config"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"go.uber.org/zap"
)

// ClientFactory builds the identity-provider client handle from settings.
type ClientFactory func(settings config.Settings) (TokenAcquirer, error)

// Authenticator obtains access tokens through an interactive login.
//
// The client handle is built on first use and reused for the lifetime of the Authenticator. A failed
// build is not cached, so a later call may try again. Tokens are never cached.
type Authenticator struct {
	settings config.Settings
	factory  ClientFactory
	logger   *zap.Logger

	mu     sync.Mutex
	client TokenAcquirer
}

// NewAuthenticator creates an Authenticator. All arguments are required.
func NewAuthenticator(settings config.Settings, factory ClientFactory, logger *zap.Logger) (*Authenticator, error) {
	if settings.IsZero() {
		return nil, apperr.InvalidArgument("oauth2client: settings are required")
	}
	if factory == nil {
		return nil, apperr.InvalidArgument("oauth2client: client factory is required")
	}
	if logger == nil {
		return nil, apperr.InvalidArgument("oauth2client: logger is required")
	}

	return &Authenticator{
		settings: settings,
		factory:  factory,
		logger:   logger.Named("auth"),
	}, nil
}

// GetAccessToken runs the interactive flow for the configured scopes and returns the bearer token.
//
// Failures are *apperr.Error of KindAuthentication. If ctx is done, ctx.Err() is returned as is.
func (a *Authenticator) GetAccessToken(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client, err := a.clientHandle()
	if err != nil {
		a.logger.Debug("identity client initialization failed", zap.Error(err))
		return "", apperr.Authentication("failed to initialize identity client", err)
	}

	scopes := a.settings.Scopes()
	a.logger.Info("starting interactive login",
		zap.String("tenant", a.settings.TenantID()),
		zap.Strings("scopes", scopes),
	)

	tok, err := client.AcquireInteractive(ctx, scopes)
	if err != nil {
		return "", a.translate(ctx, err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", apperr.Authentication("identity provider returned an empty access token", nil)
	}

	fields := []zap.Field{zap.Time("expires_on", tok.ExpiresOn)}
	if tok.Account != "" {
		fields = append(fields, zap.String("account", tok.Account))
	}
	a.logger.Info("access token acquired", fields...)

	return tok.AccessToken, nil
}

// clientHandle returns the client, building it on first use.
func (a *Authenticator) clientHandle() (TokenAcquirer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	client, err := a.factory(a.settings)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("client factory returned nil")
	}

	a.client = client
	return client, nil
}

func (a *Authenticator) translate(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		a.logger.Debug("interactive login cancelled")
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) && domainErr.Kind == apperr.KindAuthentication {
		return domainErr
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		a.logger.Debug("identity provider rejected login", zap.Error(err))
		return apperr.Authentication("authentication failed: "+providerErr.Error(), err)
	}

	a.logger.Debug("unexpected error during login", zap.Error(err))
	return apperr.Authentication("unexpected error during authentication", err)
}

// DefaultClientFactory picks the flow named by settings.Provider. Token requests use the library
// defaults for HTTP.
func DefaultClientFactory(settings config.Settings) (TokenAcquirer, error) {
	return NewClientFactory(nil)(settings)
}

// NewClientFactory returns a ClientFactory whose identity clients send their token requests through
// httpClient, so they share its TLS roots, tracing and request logging. A nil httpClient keeps the
// library defaults.
func NewClientFactory(httpClient *http.Client) ClientFactory {
	return func(settings config.Settings) (TokenAcquirer, error) {
		if settings.Provider() == config.ProviderOAuth2 {
			var opts []LoopbackOption
			if httpClient != nil {
				opts = append(opts, WithTokenHTTPClient(httpClient))
			}
			client, err := NewLoopbackClient(settings, opts...)
			if err != nil {
				return nil, err
			}
			return client, nil
		}

		var opts []public.Option
		if httpClient != nil {
			opts = append(opts, public.WithHTTPClient(httpClient))
		}
		client, err := NewMSALClient(settings, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
