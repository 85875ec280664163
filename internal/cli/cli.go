// Package cli wires configuration, logging and the workflow components behind the apicall command.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/AmmannChristian/go-apicall/apperr"
	"github.com/AmmannChristian/go-apicall/config"
	"github.com/AmmannChristian/go-apicall/httpclient"
	"github.com/AmmannChristian/go-apicall/internal/logger"
	"github.com/AmmannChristian/go-apicall/oauth2client"
	"github.com/AmmannChristian/go-apicall/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Deps replaces collaborators that reach outside the process. Zero values select the real ones.
type Deps struct {
	ClientFactory oauth2client.ClientFactory
	Transport     http.RoundTripper
	Logger        *zap.Logger
}

type flags struct {
	configFile         string
	envFile            string
	trace              bool
	insecureSkipVerify bool
	noRedirects        bool
	overrides          config.File
}

// NewRootCommand returns the apicall command.
func NewRootCommand(deps Deps) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "apicall",
		Short: "Sign in interactively and call a protected API with the issued token",
		Long: `apicall signs the user in through the identity provider's interactive flow, calls the
configured API with the access token as bearer credential and prints the response,
pretty-printed when it is JSON.

Settings come from --config (YAML), a .env file, APICALL_* environment variables and
the flags below, later sources winning.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), f, deps)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configFile, "config", "", "YAML config file")
	fl.StringVar(&f.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	fl.StringVar(&f.overrides.TenantID, "tenant-id", "", "identity-provider tenant (env "+config.EnvTenantID+")")
	fl.StringVar(&f.overrides.ClientID, "client-id", "", "application (client) id (env "+config.EnvClientID+")")
	fl.StringVar(&f.overrides.APIURL, "api-url", "", "API endpoint to GET (env "+config.EnvAPIURL+")")
	fl.StringSliceVar(&f.overrides.Scopes, "scope", nil, "scope to request, repeatable (env "+config.EnvScopes+")")
	fl.StringVar(&f.overrides.RedirectURI, "redirect-uri", "", "loopback redirect URI (default "+config.DefaultRedirectURI+")")
	fl.StringVar(&f.overrides.AuthorityHost, "authority-host", "", "identity-provider host (default "+config.DefaultAuthorityHost+")")
	fl.StringVar(&f.overrides.Provider, "provider", "", "interactive flow: msal or oauth2 (default msal)")
	fl.DurationVar(&f.overrides.Timeout, "timeout", 0, "HTTP timeout (default 30s)")
	fl.StringVar(&f.overrides.CAFile, "ca-file", "", "PEM CA bundle for the API's TLS certificate")
	fl.StringVar(&f.overrides.Logging.Level, "log-level", "", "debug, info, warn or error (default info)")
	fl.StringVar(&f.overrides.Logging.Env, "log-env", "", "dev (console) or prod (JSON)")
	fl.BoolVar(&f.trace, "trace", false, "instrument API requests with OpenTelemetry")
	fl.BoolVar(&f.insecureSkipVerify, "insecure-skip-verify", false, "skip TLS certificate verification (development APIs only)")
	fl.BoolVar(&f.noRedirects, "no-redirects", false, "report redirects as errors instead of following them")

	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, f flags, deps Deps) error {
	settings, logging, err := config.Load(config.LoadOptions{
		ConfigFile: f.configFile,
		EnvFile:    f.envFile,
		Overrides:  f.overrides,
	})
	if err != nil {
		return err
	}

	log := deps.Logger
	if log == nil {
		log = logger.New(logger.Config{Env: logging.Env, Level: logging.Level, Output: stderr})
		defer func() { _ = log.Sync() }()
	}

	builder := httpclient.NewBuilder().
		WithTimeout(settings.Timeout()).
		WithLogger(log)
	if settings.CAFile() != "" {
		builder = builder.WithCAFile(settings.CAFile())
	}
	if f.insecureSkipVerify {
		log.Warn("TLS certificate verification is disabled")
		builder = builder.WithInsecureSkipVerify()
	}
	if f.noRedirects {
		builder = builder.WithoutRedirects()
	}
	if f.trace {
		builder = builder.WithTracing()
	}
	if deps.Transport != nil {
		builder = builder.WithBaseTransport(deps.Transport)
	}
	client, err := builder.Build()
	if err != nil {
		return err
	}

	factory := deps.ClientFactory
	if factory == nil {
		factory = oauth2client.NewClientFactory(client)
	}
	auth, err := oauth2client.NewAuthenticator(settings, factory, log)
	if err != nil {
		return err
	}

	caller, err := httpclient.NewCaller(settings, client, log)
	if err != nil {
		return err
	}

	orchestrator, err := workflow.New(auth, caller, stdout, log)
	if err != nil {
		return err
	}
	return orchestrator.Run(ctx)
}

// Execute runs the command with args and returns the process exit code: 0 on success, 1 on any
// failure. The failure's user-facing message is written to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, deps Deps) int {
	cmd := NewRootCommand(deps)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", apperr.Message(err))
		return 1
	}
	return 0
}
