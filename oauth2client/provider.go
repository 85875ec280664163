package oauth2client

import (
	"context"
	"time"
)

// Token is what an interactive flow hands back.
type Token struct {
	AccessToken string
	ExpiresOn   time.Time
	// Account is the signed-in user's display identifier, when the provider reports one.
	Account string
}

// TokenAcquirer is the identity-provider collaborator: given scopes, run an interactive login and
// return the issued token. Implementations must return promptly once ctx is done.
type TokenAcquirer interface {
	AcquireInteractive(ctx context.Context, scopes []string) (Token, error)
}

// ProviderError marks a failure reported by the identity provider itself (rejected request,
// consent denied, invalid grant). The Authenticator surfaces its message to the user.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

// Unwrap returns the library error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
