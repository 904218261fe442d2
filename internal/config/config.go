package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the device configuration
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Serial   SerialConfig   `yaml:"serial"`
	Broker   BrokerConfig   `yaml:"broker"`
	Session  SessionConfig  `yaml:"session"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DeviceConfig identifies this device
type DeviceConfig struct {
	Name string `yaml:"name"`
}

// SerialConfig represents the companion UART link
type SerialConfig struct {
	Enabled  bool   `yaml:"enabled"`
	PortPath string `yaml:"port_path"`
	BaudRate int    `yaml:"baud_rate"`
}

// BrokerConfig represents the MQTT broker link
type BrokerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	StartTopic     string        `yaml:"start_topic"`
	QoS            int           `yaml:"qos"`
	KeepAlive      time.Duration `yaml:"keepalive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// SessionConfig bounds the focus session selection
type SessionConfig struct {
	MinDurationHours     float64       `yaml:"min_duration_hours"`
	MaxDurationHours     float64       `yaml:"max_duration_hours"`
	DefaultDurationHours float64       `yaml:"default_duration_hours"`
	TickPeriod           time.Duration `yaml:"tick_period"`
}

// APIConfig represents the local status/control API
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// DatabaseConfig represents session history storage
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Addr returns the API listen address.
func (c *APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	var cfg Config
	cfg.applyEnvOverrides()
	cfg.setDefaults()
	return &cfg
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("SERIAL_PORT"); port != "" {
		c.Serial.PortPath = port
		c.Serial.Enabled = true
	}

	if host := os.Getenv("MQTT_BROKER_HOST"); host != "" {
		c.Broker.Host = host
		c.Broker.Enabled = true
	}

	if port := os.Getenv("MQTT_BROKER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Broker.Port = p
		}
	}

	if dbPath := os.Getenv("DEVICE_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
		c.Database.Enabled = true
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}
}

// setDefaults fills unset fields with the device defaults.
func (c *Config) setDefaults() {
	if c.Device.Name == "" {
		c.Device.Name = "echome-focus-device"
	}

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = 115200
	}

	if c.Broker.Port == 0 {
		c.Broker.Port = 1883
	}
	if c.Broker.ClientID == "" {
		c.Broker.ClientID = "echome_smart_device_001"
	}
	if c.Broker.StartTopic == "" {
		c.Broker.StartTopic = "topic/start"
	}
	if c.Broker.KeepAlive == 0 {
		c.Broker.KeepAlive = 60 * time.Second
	}
	if c.Broker.ConnectTimeout == 0 {
		c.Broker.ConnectTimeout = 5 * time.Second
	}
	if c.Broker.PollInterval == 0 {
		c.Broker.PollInterval = 100 * time.Millisecond
	}

	if c.Session.MaxDurationHours == 0 {
		c.Session.MaxDurationHours = 2.0
	}
	if c.Session.DefaultDurationHours == 0 {
		c.Session.DefaultDurationHours = 1.0
	}
	if c.Session.TickPeriod == 0 {
		c.Session.TickPeriod = time.Second
	}

	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8089
	}

	if c.Database.Path == "" {
		c.Database.Path = "data/focus-device.db"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Session.MinDurationHours < 0 {
		return fmt.Errorf("min_duration_hours must not be negative")
	}
	if c.Session.MaxDurationHours <= c.Session.MinDurationHours {
		return fmt.Errorf("max_duration_hours (%v) must exceed min_duration_hours (%v)",
			c.Session.MaxDurationHours, c.Session.MinDurationHours)
	}
	if c.Session.TickPeriod < 10*time.Millisecond {
		return fmt.Errorf("tick_period %v is too short", c.Session.TickPeriod)
	}

	if c.Broker.Enabled {
		if c.Broker.Host == "" {
			return fmt.Errorf("broker enabled but no host configured")
		}
		if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
			return fmt.Errorf("invalid broker qos: %d", c.Broker.QoS)
		}
	}

	if c.Serial.Enabled && c.Serial.PortPath == "" {
		return fmt.Errorf("serial enabled but no port_path configured")
	}

	return nil
}
