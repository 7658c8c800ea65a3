package config

type SecurityConfig interface {
	GetSecretKey() string
	GetEnableRateLimiting() bool
	GetLoginRatePerMinute() int
	GetLoginRateBurst() int
	GetEnableMetrics() bool
	GetTrustProxyHeaders() bool
}

type SecuritySettings struct {
	RateLimitEnabled   bool `toml:"rate_limit_enabled" env:"RATE_LIMIT_ENABLED"`
	RateLimitPerMinute int  `toml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int  `toml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	MetricsEnabled     bool `toml:"metrics_enabled" env:"METRICS_ENABLED"`
	TrustProxyHeaders  bool `toml:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`
}

func defaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		RateLimitEnabled:   true,
		RateLimitPerMinute: 30,
		RateLimitBurst:     10,
		MetricsEnabled:     true,
	}
}

func (s Settings) GetEnableRateLimiting() bool {
	return s.Security.RateLimitEnabled && s.Security.RateLimitPerMinute > 0
}

func (s Settings) GetLoginRatePerMinute() int {
	return s.Security.RateLimitPerMinute
}

func (s Settings) GetLoginRateBurst() int {
	if s.Security.RateLimitBurst < 1 {
		return 1
	}
	return s.Security.RateLimitBurst
}

func (s Settings) GetEnableMetrics() bool {
	return s.Security.MetricsEnabled
}

// GetTrustProxyHeaders reports whether X-Forwarded-For / X-Real-IP may be
// used for the client address (set when running behind a reverse proxy).
func (s Settings) GetTrustProxyHeaders() bool {
	return s.Security.TrustProxyHeaders
}
