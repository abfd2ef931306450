// Package config handles thermostat configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	hub "github.com/edgelab/azureiot-pnp-thermostat"
)

// Default device values
const (
	DefaultInitialTemperature = 22.0
	DefaultModelID            = "dtmi:com:example:Thermostat;1"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./thermostat.yaml, ~/.config/thermostat/config.yaml,
// /etc/thermostat/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"thermostat.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "thermostat", "config.yaml"))
	}

	paths = append(paths, "/etc/thermostat/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all thermostat configuration.
type Config struct {
	Hub      hub.Config    `yaml:"hub"`
	Device   DeviceConfig  `yaml:"device"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"`
}

// DeviceConfig defines the worker-loop behavior.
type DeviceConfig struct {
	// InitialTemperature seeds the telemetry state at startup (default 22.0).
	InitialTemperature float64 `yaml:"initial_temperature"`
	// PublishInterval is the delay between telemetry publish cycles (default 2s).
	PublishInterval time.Duration `yaml:"publish_interval"`
	// CycleDelay is the pause between two connection cycles (default 5s).
	CycleDelay time.Duration `yaml:"cycle_delay"`

	// Connection retry policy (defaults: 5 attempts, 500ms base, 5s cap).
	ConnectAttempts   uint64        `yaml:"connect_attempts"`
	ConnectBackoffMin time.Duration `yaml:"connect_backoff_min"`
	ConnectBackoffMax time.Duration `yaml:"connect_backoff_max"`
	// ConnectTimeout bounds a single connection attempt (default 10s).
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MetricsConfig defines the optional Prometheus endpoint.
type MetricsConfig struct {
	// Listen address for /metrics, e.g. ":9090". Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// Load reads and parses the config file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if cfg.Hub.BrokerURL == "" && cfg.Hub.Hostname == "" {
		return nil, fmt.Errorf("config %s: hub hostname or broker_url is required", path)
	}
	if cfg.Hub.DeviceID == "" {
		return nil, fmt.Errorf("config %s: hub device_id is required", path)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Hub.ModelID == "" {
		c.Hub.ModelID = DefaultModelID
	}
	if c.Device.InitialTemperature == 0 {
		c.Device.InitialTemperature = DefaultInitialTemperature
	}
	if c.Device.PublishInterval == 0 {
		c.Device.PublishInterval = 2 * time.Second
	}
	if c.Device.CycleDelay == 0 {
		c.Device.CycleDelay = 5 * time.Second
	}
	if c.Device.ConnectAttempts == 0 {
		c.Device.ConnectAttempts = 5
	}
	if c.Device.ConnectBackoffMin == 0 {
		c.Device.ConnectBackoffMin = 500 * time.Millisecond
	}
	if c.Device.ConnectBackoffMax == 0 {
		c.Device.ConnectBackoffMax = 5 * time.Second
	}
	if c.Device.ConnectTimeout == 0 {
		c.Device.ConnectTimeout = 10 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
