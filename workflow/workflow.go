// Package workflow sequences the run: authenticate, call the API, print the result.
package workflow

import (
	"context"
	"fmt"
	"io"

	"github.com/AmmannChristian/go-apicall/apperr"
	"go.uber.org/zap"
)

// TokenSource yields an access token. *oauth2client.Authenticator implements it.
type TokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// APICaller calls the API with a token. *httpclient.Caller implements it.
type APICaller interface {
	CallAPI(ctx context.Context, accessToken string) (string, error)
}

// Orchestrator runs Authenticating -> Calling -> Done with no retries. It keeps no state between runs.
type Orchestrator struct {
	tokens TokenSource
	api    APICaller
	out    io.Writer
	logger *zap.Logger
}

// New creates an Orchestrator writing the API response to out. All arguments are required.
func New(tokens TokenSource, api APICaller, out io.Writer, logger *zap.Logger) (*Orchestrator, error) {
	if tokens == nil {
		return nil, apperr.InvalidArgument("workflow: token source is required")
	}
	if api == nil {
		return nil, apperr.InvalidArgument("workflow: api caller is required")
	}
	if out == nil {
		return nil, apperr.InvalidArgument("workflow: output writer is required")
	}
	if logger == nil {
		return nil, apperr.InvalidArgument("workflow: logger is required")
	}

	return &Orchestrator{tokens: tokens, api: api, out: out, logger: logger.Named("workflow")}, nil
}

// Run authenticates, calls the API and writes the formatted body followed by a newline.
// Errors from either step are returned unchanged and nothing is written on failure. The component
// that failed has already logged the cause.
func (o *Orchestrator) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	o.logger.Debug("authenticating")
	token, err := o.tokens.GetAccessToken(ctx)
	if err != nil {
		return err
	}

	o.logger.Debug("calling api")
	body, err := o.api.CallAPI(ctx, token)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(o.out, body); err != nil {
		return fmt.Errorf("workflow: write output: %w", err)
	}
	o.logger.Debug("done")
	return nil
}
