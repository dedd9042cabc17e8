package warehouse

import (
	"fmt"

	"github.com/ordersys/platform/internal/platform"
)

// Config holds all configuration for the Warehouse service.
type Config struct {
	Server     platform.ServerConfig
	DB         platform.DBConfig
	Log        platform.LogConfig
	Admin      platform.AdminConfig
	Peers      platform.PeersConfig
	Resilience platform.ResilienceConfig
}

// Load parses environment variables into Config and validates them.
func Load() (*Config, error) {
	var cfg Config
	if err := platform.Process(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if err := platform.ValidatePort("SERVER_PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout < 1 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be at least 1 second, got %d", c.Server.ShutdownTimeout)
	}
	if err := c.DB.Validate(); err != nil {
		return err
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	if c.Peers.WarrantyHost == "" {
		return fmt.Errorf("WARRANTY_HOST must be set")
	}
	return nil
}
