// Package config loads gateway configuration from the environment,
// with optional .env file support for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage driver names.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config is the full gateway configuration.
type Config struct {
	HTTPHost string `env:"LOBBYGATE_HTTP_HOST" envDefault:""`
	HTTPPort int    `env:"LOBBYGATE_HTTP_PORT" envDefault:"8080"`

	LogLevel  string `env:"LOBBYGATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOBBYGATE_LOG_FORMAT" envDefault:"json"`

	// StorageDriver selects memory or redis for the lobby and peer
	// stores. Peer stores share the redis instance under their own key
	// prefixes.
	StorageDriver  string `env:"LOBBYGATE_STORAGE_DRIVER" envDefault:"memory"`
	RedisURL       string `env:"LOBBYGATE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisKeyPrefix string `env:"LOBBYGATE_REDIS_KEY_PREFIX" envDefault:"lobby"`

	// Peers lists the peer process IDs the gateway serves. Each gets
	// its own store and relay channel.
	Peers []string `env:"LOBBYGATE_PEERS" envSeparator:"," envDefault:"world1"`

	// Session eviction.
	SessionIdleTimeout time.Duration `env:"LOBBYGATE_SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SessionSweepEvery  time.Duration `env:"LOBBYGATE_SESSION_SWEEP_EVERY" envDefault:"5m"`

	// Extension program directories.
	WebAppDir  string `env:"LOBBYGATE_WEBAPP_DIR" envDefault:"webapps"`
	WebGameDir string `env:"LOBBYGATE_WEBGAME_DIR" envDefault:"webgames"`

	// AdminLevel is the minimum authorization level for the admin
	// command surface.
	AdminLevel int `env:"LOBBYGATE_ADMIN_LEVEL" envDefault:"1000"`

	// Registration defaults stamped onto new accounts.
	RegistrationCP      int64 `env:"LOBBYGATE_REGISTRATION_CP" envDefault:"0"`
	RegistrationTickets int   `env:"LOBBYGATE_REGISTRATION_TICKETS" envDefault:"0"`
	RegistrationLevel   int   `env:"LOBBYGATE_REGISTRATION_LEVEL" envDefault:"0"`
	RegistrationEnabled bool  `env:"LOBBYGATE_REGISTRATION_ENABLED" envDefault:"true"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the gateway cannot start with.
func (c *Config) Validate() error {
	if c.StorageDriver != DriverMemory && c.StorageDriver != DriverRedis {
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTPPort)
	}
	if len(c.Peers) == 0 {
		return fmt.Errorf("at least one peer required")
	}
	for _, peer := range c.Peers {
		if peer == "" {
			return fmt.Errorf("empty peer ID in peer list")
		}
	}
	if c.SessionIdleTimeout <= 0 || c.SessionSweepEvery <= 0 {
		return fmt.Errorf("session timeouts must be positive")
	}
	return nil
}
