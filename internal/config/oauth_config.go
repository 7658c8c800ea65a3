package config

import (
	"fmt"
	"strings"
	"time"
)

type OAuthConfig interface {
	GetTenantID() string
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetExtraScopes() []string
	GetLoginFlowTimeout() time.Duration
}

// OAuthSettings describes the Azure AD (Entra ID) application registration.
type OAuthSettings struct {
	TenantID         string        `toml:"tenant_id" env:"AAD_TENANT_ID"`
	ClientID         string        `toml:"client_id" env:"AAD_CLIENT_ID"`
	ClientSecret     string        `toml:"client_secret" env:"AAD_CLIENT_SECRET"`
	RedirectURI      string        `toml:"redirect_uri" env:"AAD_REDIRECT_URI"`
	Authority        string        `toml:"authority" env:"AAD_AUTHORITY"`
	ExtraScopes      []string      `toml:"extra_scopes" env:"AAD_EXTRA_SCOPES" envSeparator:","`
	LoginFlowTimeout time.Duration `toml:"login_flow_timeout" env:"LOGIN_FLOW_TIMEOUT"`
}

func defaultOAuthSettings() OAuthSettings {
	return OAuthSettings{
		RedirectURI:      "http://localhost:8080/auth/callback",
		Authority:        "https://login.microsoftonline.com",
		LoginFlowTimeout: 10 * time.Minute,
	}
}

// GetIssuerURL returns the v2.0 issuer for the configured tenant,
// e.g. https://login.microsoftonline.com/<tenant>/v2.0
func (s Settings) GetIssuerURL() string {
	authority := strings.TrimRight(s.OAuth.Authority, "/")
	return fmt.Sprintf("%s/%s/v2.0", authority, s.OAuth.TenantID)
}

func (s Settings) GetTenantID() string {
	return s.OAuth.TenantID
}

func (s Settings) GetClientID() string {
	return s.OAuth.ClientID
}

func (s Settings) GetClientSecret() string {
	return s.OAuth.ClientSecret
}

func (s Settings) GetRedirectURI() string {
	return s.OAuth.RedirectURI
}

func (s Settings) GetExtraScopes() []string {
	scopes := make([]string, 0, len(s.OAuth.ExtraScopes))
	for _, scope := range s.OAuth.ExtraScopes {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func (s Settings) GetLoginFlowTimeout() time.Duration {
	return s.OAuth.LoginFlowTimeout
}
