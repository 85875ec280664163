package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AmmannChristian/go-apicall/config"
	msalerrors "github.com/AzureAD/microsoft-authentication-library-for-go/apps/errors"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"github.com/pkg/browser"
)

const providerMSAL = "msal"

// interactiveApp is the subset of public.Client used here.
type interactiveApp interface {
	AcquireTokenInteractive(ctx context.Context, scopes []string, opts ...public.AcquireInteractiveOption) (public.AuthResult, error)
}

// MSALClient runs the interactive flow through the Microsoft Authentication Library public client.
// MSAL opens the system browser and listens on the loopback redirect URI itself.
type MSALClient struct {
	app         interactiveApp
	redirectURI string
}

// NewMSALClient builds a public client for the tenant authority and client id in settings. opts are
// applied after the authority.
func NewMSALClient(settings config.Settings, opts ...public.Option) (*MSALClient, error) {
	opts = append([]public.Option{public.WithAuthority(settings.Authority())}, opts...)
	app, err := public.New(settings.ClientID(), opts...)
	if err != nil {
		return nil, fmt.Errorf("oauth2client: create msal public client: %w", err)
	}
	// MSAL launches the browser through pkg/browser; stdout is reserved for the API response.
	browser.Stdout = os.Stderr

	return &MSALClient{app: app, redirectURI: settings.RedirectURI()}, nil
}

// AcquireInteractive implements TokenAcquirer.
func (c *MSALClient) AcquireInteractive(ctx context.Context, scopes []string) (Token, error) {
	res, err := c.app.AcquireTokenInteractive(ctx, scopes, public.WithRedirectURI(c.redirectURI))
	if err != nil {
		return Token{}, classifyMSALError(err)
	}

	return Token{
		AccessToken: res.AccessToken,
		ExpiresOn:   res.ExpiresOn,
		Account:     res.Account.PreferredUsername,
	}, nil
}

// classifyMSALError marks errors carrying an identity-provider response as ProviderError.
func classifyMSALError(err error) error {
	var callErr msalerrors.CallErr
	if errors.As(err, &callErr) {
		return &ProviderError{Provider: providerMSAL, Err: err}
	}
	return err
}
