package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Cache    CacheConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host           string        `env:"AUTHPORTAL_HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"AUTHPORTAL_PORT" envDefault:"8080"`
	BaseURL        string        `env:"AUTHPORTAL_BASE_URL" envDefault:"http://localhost:8080"`
	CookieName     string        `env:"AUTHPORTAL_COOKIE_NAME" envDefault:"authportal-session"`
	CookieDomain   string        `env:"AUTHPORTAL_COOKIE_DOMAIN"`
	CookieSecure   bool          `env:"AUTHPORTAL_COOKIE_SECURE"`
	CookieHTTPOnly bool          `env:"AUTHPORTAL_COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string        `env:"AUTHPORTAL_COOKIE_SAME_SITE" envDefault:"lax"`
	SessionTTL     time.Duration `env:"AUTHPORTAL_SESSION_TTL" envDefault:"24h"`
}

// ProviderConfig holds the identity provider settings. The five base fields
// are required; startup fails if any is missing.
type ProviderConfig struct {
	Domain                string        `env:"AUTHPORTAL_PROVIDER_DOMAIN"`
	ClientID              string        `env:"AUTHPORTAL_CLIENT_ID"`
	ClientSecret          string        `env:"AUTHPORTAL_CLIENT_SECRET"`
	RedirectURL           string        `env:"AUTHPORTAL_REDIRECT_URL"`
	PostLogoutRedirectURL string        `env:"AUTHPORTAL_POST_LOGOUT_REDIRECT_URL"`
	Scopes                []string      `env:"AUTHPORTAL_SCOPES" envSeparator:" " envDefault:"openid profile email offline"`
	Timeout               time.Duration `env:"AUTHPORTAL_PROVIDER_TIMEOUT" envDefault:"10s"`
}

type CacheConfig struct {
	Type  string `env:"AUTHPORTAL_CACHE_TYPE" envDefault:"memory"`
	Redis RedisConfig
}

type RedisConfig struct {
	Address    string `env:"AUTHPORTAL_REDIS_ADDRESS"`
	Password   string `env:"AUTHPORTAL_REDIS_PASSWORD"`
	DB         int    `env:"AUTHPORTAL_REDIS_DB"`
	PoolSize   int    `env:"AUTHPORTAL_REDIS_POOL_SIZE" envDefault:"10"`
	MaxRetries int    `env:"AUTHPORTAL_REDIS_MAX_RETRIES" envDefault:"3"`
}

type LoggingConfig struct {
	Level  string `env:"AUTHPORTAL_LOG_LEVEL" envDefault:"info"`
	Format string `env:"AUTHPORTAL_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.normalize()
	cfg.loadSecretsFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Provider.Domain = strings.TrimSuffix(c.Provider.Domain, "/")
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")
}

func (c *Config) loadSecretsFromEnv() {
	// REDIS_PASSWORD is the conventional name in deployment environments;
	// it wins over the prefixed form when both are set.
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
}
