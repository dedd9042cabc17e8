// Package platform holds the cross-cutting pieces shared by all four
// services: configuration sub-structs, logging setup, the service-health
// gate, the outbound peer client, and id generation.
package platform

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig holds HTTP server configuration, identical in shape across
// all four services.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database connection configuration.
// WARNING: Default password is for local development only.
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"postgres"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AdminConfig holds the basic-auth credentials gating /manage/health.
type AdminConfig struct {
	Username string `envconfig:"ADMIN_USERNAME" default:"root"`
	Password string `envconfig:"ADMIN_PASSWORD" default:"root"`
}

// PeersConfig holds the base URLs of the services a caller depends on.
// A service only populates the fields it actually calls.
type PeersConfig struct {
	WarehouseHost string `envconfig:"WAREHOUSE_HOST"`
	WarrantyHost  string `envconfig:"WARRANTY_HOST"`
	OrderHost     string `envconfig:"ORDER_HOST"`
}

// ResilienceConfig tunes the health gate and retrying outbound client.
type ResilienceConfig struct {
	UpdateDuration int `envconfig:"SERVICES_UPDATE_DURATION" default:"60"` // seconds, cooldown before a probe is attempted
	CalloutNumber  int `envconfig:"SERVICES_CALLOUT_NUMBER" default:"4"`   // attempts per call
	CalloutTimeout int `envconfig:"SERVICES_CALLOUT_TIMEOUT" default:"3"`  // seconds, per attempt
}

// QueueConfig holds the optional AMQP connection used by Order's deferred
// warranty-enrolment path. An empty AMQP_URL means the queue is disabled;
// AMQP_QUEUE defaults to "warranty.deferred".
type QueueConfig struct {
	AMQPURL   string `envconfig:"AMQP_URL"`
	AMQPQueue string `envconfig:"AMQP_QUEUE" default:"warranty.deferred"`
}

// Enabled reports whether a durable queue was configured for this process.
func (c QueueConfig) Enabled() bool {
	return c.AMQPURL != ""
}

// ValidatePort checks that a string-typed port env var parses to a valid
// TCP port number. Shared by every service's Config.Validate.
func ValidatePort(name, value string) error {
	var port int
	if _, err := fmt.Sscanf(value, "%d", &port); err != nil {
		return fmt.Errorf("%s must be a valid number: %w", name, err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// Validate checks the common DB pool invariants.
func (c DBConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.MaxConns)
	}
	if c.MinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be at least 0, got %d", c.MinConns)
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.MinConns, c.MaxConns)
	}
	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("DB_SSLMODE must be one of: disable, allow, prefer, require, verify-ca, verify-full; got %q", c.SSLMode)
	}
	return nil
}

// Validate checks the resilience tunables are sane.
func (c ResilienceConfig) Validate() error {
	if c.UpdateDuration < 1 {
		return fmt.Errorf("SERVICES_UPDATE_DURATION must be at least 1 second, got %d", c.UpdateDuration)
	}
	if c.CalloutNumber < 1 {
		return fmt.Errorf("SERVICES_CALLOUT_NUMBER must be at least 1, got %d", c.CalloutNumber)
	}
	if c.CalloutTimeout < 1 {
		return fmt.Errorf("SERVICES_CALLOUT_TIMEOUT must be at least 1 second, got %d", c.CalloutTimeout)
	}
	return nil
}

// Process loads envconfig into dst, prefixed under the empty namespace the
// way the teacher's config.Load does.
func Process(dst interface{}) error {
	return envconfig.Process("", dst)
}
