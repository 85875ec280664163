package httpclient

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport is an http.RoundTripper that logs each outgoing request and its outcome.
//
// Only the method, the URL without its query, the status and the latency are logged. Headers are
// never logged, so the Authorization header stays out of the logs.
type LoggingTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	Logger *zap.Logger
}

// NewLoggingTransport wraps base. The base transport defaults to http.DefaultTransport.
func NewLoggingTransport(logger *zap.Logger, base http.RoundTripper) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &LoggingTransport{Base: base, Logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)

	if t.Logger != nil {
		u := *req.URL
		u.RawQuery = ""
		u.User = nil
		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("url", u.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			t.Logger.Debug("http request failed", append(fields, zap.Error(err))...)
		} else {
			t.Logger.Debug("http request", append(fields, zap.Int("status", resp.StatusCode))...)
		}
	}

	return resp, err
}
