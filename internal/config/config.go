package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
)

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
	BackendConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// Settings is the single configuration value built at startup. Values are
// layered: built-in defaults, then an optional TOML file, then environment
// variables.
type Settings struct {
	Port      string `toml:"port" env:"PORT"`
	AppName   string `toml:"app_name" env:"APP_NAME"`
	Env       string `toml:"env" env:"ENV"`
	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	SecretKey string `toml:"secret_key" env:"SECRET_KEY"`

	Backend  BackendSettings  `toml:"backend"`
	OAuth    OAuthSettings    `toml:"oauth"`
	Session  SessionSettings  `toml:"session"`
	Security SecuritySettings `toml:"security"`
}

var _ Config = Settings{}

// Default returns the built-in configuration before any file or environment
// overrides are applied.
func Default() Settings {
	return Settings{
		Port:     "8080",
		AppName:  "The Knowledge Hub",
		Env:      "DEV",
		LogLevel: "info",
		Backend:  defaultBackendSettings(),
		OAuth:    defaultOAuthSettings(),
		Session:  defaultSessionSettings(),
		Security: defaultSecuritySettings(),
	}
}

// Load builds the configuration. path may be empty, in which case only the
// environment is consulted.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &s); err != nil {
			return nil, fmt.Errorf("[config Load] failed to parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that everything required to serve requests is present.
func (s Settings) Validate() error {
	var errs []error
	required := map[string]string{
		"SECRET_KEY":    s.SecretKey,
		"AAD_TENANT_ID": s.OAuth.TenantID,
		"AAD_CLIENT_ID": s.OAuth.ClientID,
		"BACKEND_URL":   s.Backend.URL,
	}
	for _, name := range []string{"SECRET_KEY", "AAD_TENANT_ID", "AAD_CLIENT_ID", "BACKEND_URL"} {
		if strings.TrimSpace(required[name]) == "" {
			errs = append(errs, apperrors.Wrapf(apperrors.ErrMissingConfig, "%s", name))
		}
	}

	if s.Backend.URL != "" {
		u, err := url.Parse(s.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("BACKEND_URL %q is not an absolute URL", s.Backend.URL))
		}
	}

	switch s.Session.Backend {
	case SessionBackendMemory, SessionBackendFilesystem, SessionBackendRedis:
	default:
		errs = append(errs, apperrors.Wrapf(apperrors.ErrUnknownSessionBackend, "%q", s.Session.Backend))
	}

	if s.Backend.MeasurementsLimit <= 0 {
		errs = append(errs, fmt.Errorf("MEASUREMENTS_LIMIT must be positive, got %d", s.Backend.MeasurementsLimit))
	}
	if s.Session.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_MAX_AGE must be positive, got %s", s.Session.MaxAge))
	}
	if s.Backend.Timeout < 0 {
		errs = append(errs, fmt.Errorf("BACKEND_TIMEOUT must not be negative, got %s", s.Backend.Timeout))
	}
	if s.OAuth.LoginFlowTimeout < 0 {
		errs = append(errs, fmt.Errorf("LOGIN_FLOW_TIMEOUT must not be negative, got %s", s.OAuth.LoginFlowTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("[config Validate] %w", apperrors.Join(errs...))
	}
	return nil
}
