package config

import (
	"strings"
	"time"
)

type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
	GetMeasurementsLimit() int
}

type BackendSettings struct {
	URL               string        `toml:"url" env:"BACKEND_URL"`
	Timeout           time.Duration `toml:"timeout" env:"BACKEND_TIMEOUT"`
	MeasurementsLimit int           `toml:"measurements_limit" env:"MEASUREMENTS_LIMIT"`
}

func defaultBackendSettings() BackendSettings {
	return BackendSettings{
		URL:               "https://kh-api-app.azurewebsites.net",
		Timeout:           10 * time.Second,
		MeasurementsLimit: 20,
	}
}

func (s Settings) GetBackendURL() string {
	return strings.TrimRight(s.Backend.URL, "/")
}

func (s Settings) GetBackendTimeout() time.Duration {
	return s.Backend.Timeout
}

func (s Settings) GetMeasurementsLimit() int {
	return s.Backend.MeasurementsLimit
}
