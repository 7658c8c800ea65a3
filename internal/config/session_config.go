package config

import "time"

const (
	SessionBackendMemory     = "memory"
	SessionBackendFilesystem = "filesystem"
	SessionBackendRedis      = "redis"
)

type SessionConfig interface {
	GetSessionBackend() string
	GetSessionDir() string
	GetRedisURL() string
	GetMaxSessionAge() time.Duration
}

type SessionSettings struct {
	Backend  string        `toml:"backend" env:"SESSION_BACKEND"`
	Dir      string        `toml:"dir" env:"SESSION_DIR"`
	RedisURL string        `toml:"redis_url" env:"REDIS_URL"`
	MaxAge   time.Duration `toml:"max_age" env:"SESSION_MAX_AGE"`
}

func defaultSessionSettings() SessionSettings {
	return SessionSettings{
		Backend:  SessionBackendMemory,
		Dir:      "./data/sessions",
		RedisURL: "redis://localhost:6379/0",
		MaxAge:   8 * time.Hour,
	}
}

func (s Settings) GetSessionBackend() string {
	return s.Session.Backend
}

func (s Settings) GetSessionDir() string {
	return s.Session.Dir
}

func (s Settings) GetRedisURL() string {
	return s.Session.RedisURL
}

func (s Settings) GetMaxSessionAge() time.Duration {
	return s.Session.MaxAge
}
