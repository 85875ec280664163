// Package oauth2client obtains OAuth2 access tokens through an interactive user login.
//
// Authenticator is the entry point. It builds an identity-provider client handle once, runs the
// interactive flow for the configured scopes and translates failures into apperr authentication
// errors. Cancellation of the caller's context is returned unwrapped.
//
// Two flows implement the TokenAcquirer contract:
//
//   - MSALClient uses the Microsoft Authentication Library public client (system browser plus
//     loopback redirect handled by MSAL).
//   - LoopbackClient runs the authorization code flow with PKCE on golang.org/x/oauth2, serving
//     the redirect URI on a local listener.
//
// # Quick Start
//
//	settings, _, err := config.Load(config.LoadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	auth, err := oauth2client.NewAuthenticator(settings, oauth2client.DefaultClientFactory, zap.NewExample())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := auth.GetAccessToken(ctx)
//
// Tokens are neither cached nor logged.
package oauth2client
