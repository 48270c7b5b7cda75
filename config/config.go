// Package config loads gateway configuration from the environment.
package config

import "time"

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Guest    GuestConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Agent    AgentConfig
}

type ServerConfig struct {
	Host             string
	Port             int
	AllowedOrigins   []string
	AllowEmptyOrigin bool
}

type AuthConfig struct {
	// JWTSecret verifies full-session bearer tokens. Empty disables JWT
	// validation entirely; only guest tokens will authenticate.
	JWTSecret string

	// Password gates the whole gateway behind a shared secret when set.
	PasswordEnabled bool
	Password        string
	PasswordTTL     time.Duration
}

type GuestConfig struct {
	// MessageLimit is the total number of user messages an anonymous
	// session may send before being asked to sign in.
	MessageLimit int
	TokenTTL     time.Duration
}

type RedisConfig struct {
	URL string
}

type DatabaseConfig struct {
	URL string
}

type AgentConfig struct {
	// URL of the upstream agent's streaming endpoint.
	URL string
	// Timeout bounds a single agent turn end to end.
	Timeout time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             GetEnvWithFallback("AGGATE_SERVER_HOST", "HOST", "0.0.0.0"),
			Port:             GetEnvIntWithFallback("AGGATE_SERVER_PORT", "PORT", 8080),
			AllowedOrigins:   GetEnvSlice("AGGATE_ALLOWED_ORIGINS", []string{"*"}),
			AllowEmptyOrigin: GetEnvBool("AGGATE_ALLOW_EMPTY_ORIGIN", false),
		},
		Auth: AuthConfig{
			JWTSecret:       GetEnv("AGGATE_JWT_SECRET", ""),
			PasswordEnabled: GetEnvBool("AGGATE_PASSWORD_ENABLED", false),
			Password:        GetEnv("AGGATE_PASSWORD", ""),
			PasswordTTL:     GetEnvDuration("AGGATE_PASSWORD_TTL", 7*24*time.Hour),
		},
		Guest: GuestConfig{
			MessageLimit: GetEnvInt("AGGATE_GUEST_MESSAGE_LIMIT", 20),
			TokenTTL:     GetEnvDuration("AGGATE_GUEST_TOKEN_TTL", time.Hour),
		},
		Redis: RedisConfig{
			URL: GetEnvWithFallback("AGGATE_REDIS_URL", "REDIS_URL", "redis://localhost:6379/0"),
		},
		Database: DatabaseConfig{
			URL: GetEnvWithFallback("AGGATE_POSTGRES_URL", "DATABASE_URL", ""),
		},
		Agent: AgentConfig{
			URL:     GetEnv("AGGATE_AGENT_URL", ""),
			Timeout: GetEnvDuration("AGGATE_AGENT_TIMEOUT", 5*time.Minute),
		},
	}
}
