// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8099).
	HTTPAddr string `mapstructure:"NETMON_HTTP_ADDR"`
	// DataDir holds the SQLite database.
	DataDir string `mapstructure:"NETMON_DATA_DIR"`
	// StaticDir is served at / for the browser dashboard.
	StaticDir string `mapstructure:"NETMON_STATIC_DIR"`
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `mapstructure:"NETMON_LOG_LEVEL"`

	// SimProbability is the chance that a simulator tick fabricates a device.
	SimProbability float64 `mapstructure:"NETMON_SIM_PROBABILITY"`
	// SimInterval is the simulator tick period.
	SimInterval time.Duration `mapstructure:"NETMON_SIM_INTERVAL"`
	// SpeedInterval is the bandwidth sampling period.
	SpeedInterval time.Duration `mapstructure:"NETMON_SPEED_INTERVAL"`
	// ActivityInterval is the link-type activity refresh period.
	ActivityInterval time.Duration `mapstructure:"NETMON_ACTIVITY_INTERVAL"`

	// LogCapacity bounds the in-memory connection log.
	LogCapacity int `mapstructure:"NETMON_LOG_CAPACITY"`
	// AlertPolicy is "keep" or "replace"; see monitor.PendingPolicy.
	AlertPolicy string `mapstructure:"NETMON_ALERT_POLICY"`
	// Owner, when set, is written to the connection log at startup.
	Owner string `mapstructure:"NETMON_OWNER"`

	LocationLat     float64 `mapstructure:"NETMON_LOCATION_LAT"`
	LocationLng     float64 `mapstructure:"NETMON_LOCATION_LNG"`
	LocationAddress string  `mapstructure:"NETMON_LOCATION_ADDRESS"`
	LocationCity    string  `mapstructure:"NETMON_LOCATION_CITY"`
	LocationCountry string  `mapstructure:"NETMON_LOCATION_COUNTRY"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("NETMON_HTTP_ADDR", ":8099")
	v.SetDefault("NETMON_DATA_DIR", "/data")
	v.SetDefault("NETMON_STATIC_DIR", "./static")
	v.SetDefault("NETMON_LOG_LEVEL", "info")
	v.SetDefault("NETMON_SIM_PROBABILITY", 0.3)
	v.SetDefault("NETMON_SIM_INTERVAL", "8s")
	v.SetDefault("NETMON_SPEED_INTERVAL", "2s")
	v.SetDefault("NETMON_ACTIVITY_INTERVAL", "3s")
	v.SetDefault("NETMON_LOG_CAPACITY", 50)
	v.SetDefault("NETMON_ALERT_POLICY", "keep")
	v.SetDefault("NETMON_OWNER", "")
	v.SetDefault("NETMON_LOCATION_LAT", 40.7128)
	v.SetDefault("NETMON_LOCATION_LNG", -74.0060)
	v.SetDefault("NETMON_LOCATION_ADDRESS", "123 Network Security Ave")
	v.SetDefault("NETMON_LOCATION_CITY", "New York")
	v.SetDefault("NETMON_LOCATION_COUNTRY", "United States")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values. Call it again after applying flag overrides.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: NETMON_HTTP_ADDR must be set")
	}
	if c.SimProbability < 0 || c.SimProbability > 1 {
		return errors.New("config: NETMON_SIM_PROBABILITY must be between 0 and 1")
	}
	if c.SimInterval <= 0 || c.SpeedInterval <= 0 || c.ActivityInterval <= 0 {
		return errors.New("config: simulator intervals must be positive")
	}
	if c.LogCapacity <= 0 {
		return errors.New("config: NETMON_LOG_CAPACITY must be positive")
	}
	if c.AlertPolicy != "replace" && c.AlertPolicy != "keep" {
		return fmt.Errorf("config: NETMON_ALERT_POLICY must be replace or keep, got %q", c.AlertPolicy)
	}
	return nil
}

// DatabasePath returns the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "netmon.db")
}
