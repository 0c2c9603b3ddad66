package config

import (
	"fmt"
	"time"
)

// SessionConfig holds the settings for the signed session cookie.
type SessionConfig struct {
	Secret     string        `koanf:"secret"`
	CookieName string        `koanf:"cookieName"`
	TTL        time.Duration `koanf:"ttl"`
}

func (c *SessionConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("session secret is not configured")
	}
	if c.CookieName == "" {
		return fmt.Errorf("session cookie name is not configured")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("invalid session TTL: %v", c.TTL)
	}
	return nil
}
