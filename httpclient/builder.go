package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Builder provides a fluent interface for constructing the shared HTTP client used for API calls.
// The client carries no credentials; the caller attaches the bearer token per request.
type Builder struct {
	// TLS configuration
	tlsCAFile     string
	tlsSkipVerify bool

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
	tracing         bool
	logger          *zap.Logger
}

// NewBuilder creates a new HTTP client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithCAFile verifies the server against the PEM certificates in path instead of the system roots.
func (b *Builder) WithCAFile(path string) *Builder {
	b.tlsCAFile = path
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for adding custom middleware or using a custom connection pool. TLS options cannot be
// combined with it; Build reports an error if both are set.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
// By default, the client follows up to 10 redirects.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// WithTracing wraps the transport with OpenTelemetry instrumentation. Spans go to the global
// tracer provider, which is a no-op unless the process installs one.
func (b *Builder) WithTracing() *Builder {
	b.tracing = true
	return b
}

// WithLogger logs each request at debug level through a LoggingTransport.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// Build constructs the HTTP client with the configured options.
func (b *Builder) Build() (*http.Client, error) {
	hasTLSOptions := b.tlsCAFile != "" || b.tlsSkipVerify
	if b.baseTransport != nil && hasTLSOptions {
		return nil, errors.New("httpclient: TLS options cannot be combined with a custom base transport")
	}

	transport := b.baseTransport
	if transport == nil {
		transport = http.DefaultTransport
		if base, ok := transport.(*http.Transport); ok {
			tlsConfig, err := b.buildTLSConfig()
			if err != nil {
				return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
			}
			cloned := base.Clone()
			cloned.TLSClientConfig = tlsConfig
			transport = cloned
		} else if hasTLSOptions {
			return nil, errors.New("httpclient: TLS options need an *http.Transport default transport")
		}
	}

	if b.tracing {
		transport = otelhttp.NewTransport(transport)
	}
	if b.logger != nil {
		transport = NewLoggingTransport(b.logger, transport)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildTLSConfig constructs the TLS configuration for the HTTP client.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: b.tlsSkipVerify, // #nosec G402
	}

	if b.tlsCAFile != "" {
		caCert, err := os.ReadFile(b.tlsCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = certPool
	}

	return tlsConfig, nil
}
