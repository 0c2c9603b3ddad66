package config

import (
	"fmt"
	"strings"
	"time"
)

// DatabaseConfig describes the embedded store location. The DSN is a
// stoolap connection string: file://<path> for a persistent database,
// memory:// for an ephemeral one.
type DatabaseConfig struct {
	DSN     string        `koanf:"dsn"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is not configured")
	}
	if !strings.HasPrefix(c.DSN, "file://") && !strings.HasPrefix(c.DSN, "memory://") {
		return fmt.Errorf("database DSN must start with 'file://' or 'memory://': %s", c.DSN)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}
