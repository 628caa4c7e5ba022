// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from every variable before it is mapped onto Config.
const EnvPrefix = "DEVCONNECTOR_"

const (
	defaultJWTSecret      = "your-secret-key-change-in-production"
	defaultLoginRateLimit = 10
)

// Config holds every runtime setting. A LoginRateLimit of 0 disables
// credential rate limiting. TrustProxy takes the client address from
// X-Forwarded-For and X-Real-IP, so only enable it behind a proxy that
// overwrites those headers.
type Config struct {
	AppEnv          string        `koanf:"app_env" validate:"required"`
	LogLevel        string        `koanf:"log_level" validate:"required,oneof=trace debug info warn error"`
	ServerAddress   string        `koanf:"server_address" validate:"required"`
	JWTSecret       string        `koanf:"jwt_secret" validate:"required"`
	JWTExpiration   time.Duration `koanf:"jwt_expiration" validate:"gt=0"`
	MongoURI        string        `koanf:"mongo_uri" validate:"required"`
	MongoDB         string        `koanf:"mongo_db" validate:"required"`
	GitHubToken     string        `koanf:"github_token"`
	GitHubAPIURL    string        `koanf:"github_api_url" validate:"required,url"`
	RedisURL        string        `koanf:"redis_url"`
	TrustProxy      bool          `koanf:"trust_proxy"`
	LoginRateLimit  int           `koanf:"login_rate_limit" validate:"gte=0"`
	LoginRateWindow time.Duration `koanf:"login_rate_window" validate:"gt=0"`
	AllowedOrigins  []string      `koanf:"-"`
}

// Load reads DEVCONNECTOR_* variables (and a .env file when present),
// fills in defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if raw := k.String("allowed_origins"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}

	cfg.applyDefaults()
	if !k.Exists("login_rate_limit") {
		cfg.LoginRateLimit = defaultLoginRateLimit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppEnv == "" {
		c.AppEnv = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ServerAddress == "" {
		c.ServerAddress = ":5000"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = defaultJWTSecret
	}
	if c.JWTExpiration == 0 {
		c.JWTExpiration = 5 * 24 * time.Hour
	}
	if c.MongoURI == "" {
		c.MongoURI = "mongodb://localhost:27017"
	}
	if c.MongoDB == "" {
		c.MongoDB = "devconnector"
	}
	if c.GitHubAPIURL == "" {
		c.GitHubAPIURL = "https://api.github.com"
	}
	if c.LoginRateWindow == 0 {
		c.LoginRateWindow = time.Minute
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// Validate checks struct rules and refuses the placeholder secret in production.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("invalid configuration: jwt_secret must be changed in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
