package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AmmannChristian/go-apicall/apperr"
	"github.com/AmmannChristian/go-apicall/config"
	"go.uber.org/zap"
)

// maxBodyBytes is the largest response body accepted. Larger bodies fail the call.
const maxBodyBytes = 10 << 20

// DefaultUserAgent is sent with every API request.
const DefaultUserAgent = "go-apicall/1.0"

// Caller issues the authenticated GET against the configured API.
//
// The http.Client is shared and never mutated: the Authorization header is set on each request,
// so one Caller is safe for concurrent use.
type Caller struct {
	settings config.Settings
	client   *http.Client
	logger   *zap.Logger
}

// NewCaller creates a Caller. All arguments are required.
func NewCaller(settings config.Settings, client *http.Client, logger *zap.Logger) (*Caller, error) {
	if settings.IsZero() {
		return nil, apperr.InvalidArgument("httpclient: settings are required")
	}
	if client == nil {
		return nil, apperr.InvalidArgument("httpclient: http client is required")
	}
	if logger == nil {
		return nil, apperr.InvalidArgument("httpclient: logger is required")
	}

	return &Caller{
		settings: settings,
		client:   client,
		logger:   logger.Named("api"),
	}, nil
}

// CallAPI sends GET to the API URL with accessToken as bearer credential and returns the body,
// pretty-printed when it is JSON.
//
// An empty or blank token is rejected with an apperr KindInvalidArgument error before any request is
// made. Remote failures are KindAPI errors. If ctx is done, ctx.Err() is returned as is.
func (c *Caller) CallAPI(ctx context.Context, accessToken string) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", apperr.InvalidArgument("httpclient: access token must not be empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	apiURL := c.settings.APIURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", apperr.API("failed to build api request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", DefaultUserAgent)

	c.logger.Info("calling api", zap.String("url", apiURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.translate(ctx, fmt.Sprintf("request to %s failed", apiURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", c.translate(ctx, "failed to read api response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("api returned an error status", zap.Int("status", resp.StatusCode))
		return "", apperr.API(fmt.Sprintf("api returned status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}
	if len(body) > maxBodyBytes {
		c.logger.Debug("api response too large", zap.Int("limit_bytes", maxBodyBytes))
		return "", apperr.API("api response exceeds 10 MiB", nil)
	}

	c.logger.Info("api call succeeded", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return FormatBody(body), nil
}

func (c *Caller) translate(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Debug("api call cancelled")
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) && domainErr.Kind == apperr.KindAPI {
		return domainErr
	}

	c.logger.Debug("api call failed", zap.Error(err))
	return apperr.API(message, err)
}
