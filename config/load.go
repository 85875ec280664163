package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names read by Load.
const (
	EnvTenantID      = "APICALL_TENANT_ID"
	EnvClientID      = "APICALL_CLIENT_ID"
	EnvAPIURL        = "APICALL_API_URL"
	EnvScopes        = "APICALL_SCOPES"
	EnvRedirectURI   = "APICALL_REDIRECT_URI"
	EnvAuthorityHost = "APICALL_AUTHORITY_HOST"
	EnvProvider      = "APICALL_PROVIDER"
	EnvTimeout       = "APICALL_TIMEOUT"
	EnvCAFile        = "APICALL_CA_FILE"
	EnvLogEnv        = "APICALL_LOG_ENV"
	EnvLogLevel      = "APICALL_LOG_LEVEL"
)

const defaultEnvFile = ".env"

// Logging selects the logger flavor and minimum level.
type Logging struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// File is the YAML document accepted by Load.
type File struct {
	Values  `yaml:",inline"`
	Logging Logging `yaml:"log"`
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. Missing is an error when set.
	ConfigFile string
	// EnvFile is a dotenv file merged into the process environment. When empty, ".env" is
	// loaded if present.
	EnvFile string
	// Overrides win over every other source for each non-zero field.
	Overrides File
}

// Load merges the YAML file, the environment and the overrides, in that order, and validates the result.
func Load(opts LoadOptions) (Settings, Logging, error) {
	var f File

	if opts.ConfigFile != "" {
		raw, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return Settings{}, Logging{}, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Settings{}, Logging{}, fmt.Errorf("config: parse %s: %w", opts.ConfigFile, err)
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Settings{}, Logging{}, err
	}
	if err := applyEnv(&f); err != nil {
		return Settings{}, Logging{}, err
	}
	merge(&f, opts.Overrides)

	s, err := New(f.Values)
	if err != nil {
		return Settings{}, Logging{}, err
	}
	return s, f.Logging, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", defaultEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func applyEnv(f *File) error {
	setString(&f.TenantID, EnvTenantID)
	setString(&f.ClientID, EnvClientID)
	setString(&f.APIURL, EnvAPIURL)
	setString(&f.RedirectURI, EnvRedirectURI)
	setString(&f.AuthorityHost, EnvAuthorityHost)
	setString(&f.Provider, EnvProvider)
	setString(&f.CAFile, EnvCAFile)
	setString(&f.Logging.Env, EnvLogEnv)
	setString(&f.Logging.Level, EnvLogLevel)

	if v := os.Getenv(EnvScopes); v != "" {
		f.Scopes = SplitScopes(v)
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		f.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func merge(dst *File, src File) {
	pick := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	pick(&dst.TenantID, src.TenantID)
	pick(&dst.ClientID, src.ClientID)
	pick(&dst.APIURL, src.APIURL)
	pick(&dst.RedirectURI, src.RedirectURI)
	pick(&dst.AuthorityHost, src.AuthorityHost)
	pick(&dst.Provider, src.Provider)
	pick(&dst.CAFile, src.CAFile)
	pick(&dst.Logging.Env, src.Logging.Env)
	pick(&dst.Logging.Level, src.Logging.Level)
	if len(src.Scopes) > 0 {
		dst.Scopes = src.Scopes
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
}

// SplitScopes splits a scope list separated by whitespace or commas.
func SplitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
