package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateProvider(); err != nil {
		return fmt.Errorf("provider config: %w", err)
	}

	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	if _, err := url.Parse(c.Server.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	sameSite := strings.ToLower(c.Server.CookieSameSite)
	if sameSite != "lax" && sameSite != "strict" && sameSite != "none" {
		return fmt.Errorf("invalid cookie same-site: %s (must be lax, strict, or none)", c.Server.CookieSameSite)
	}

	if c.Server.SessionTTL < time.Minute {
		return fmt.Errorf("session TTL must be at least 1 minute")
	}

	return nil
}

func (c *Config) validateProvider() error {
	required := []struct {
		name  string
		value string
	}{
		{"AUTHPORTAL_PROVIDER_DOMAIN", c.Provider.Domain},
		{"AUTHPORTAL_CLIENT_ID", c.Provider.ClientID},
		{"AUTHPORTAL_CLIENT_SECRET", c.Provider.ClientSecret},
		{"AUTHPORTAL_REDIRECT_URL", c.Provider.RedirectURL},
		{"AUTHPORTAL_POST_LOGOUT_REDIRECT_URL", c.Provider.PostLogoutRedirectURL},
	}

	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}

	u, err := url.Parse(c.Provider.Domain)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid provider domain: %s (must be an absolute URL)", c.Provider.Domain)
	}

	if _, err := url.Parse(c.Provider.RedirectURL); err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}

	if _, err := url.Parse(c.Provider.PostLogoutRedirectURL); err != nil {
		return fmt.Errorf("invalid post-logout redirect URL: %w", err)
	}

	if len(c.Provider.Scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}

	hasOpenID := false
	for _, scope := range c.Provider.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("'openid' scope is required")
	}

	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("invalid type: %s (must be memory or redis)", c.Cache.Type)
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return fmt.Errorf("redis address is required when type is redis")
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
