package config

import (
	"fmt"
	"strings"
)

func (s Settings) GetPort() string {
	port := s.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (s Settings) GetAppName() string {
	return s.AppName
}

// GetEnv returns the deployment environment, "DEV" unless configured otherwise
func (s Settings) GetEnv() string {
	if s.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(s.Env)
}

func (s Settings) GetLogLevel() string {
	return s.LogLevel
}

// GetSecretKey returns the key material that signs session cookies and
// encrypts stored sessions.
func (s Settings) GetSecretKey() string {
	return s.SecretKey
}
