// Package config loads and validates the client configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	Endpoint EndpointConfig `json:"endpoint" yaml:"endpoint"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// EndpointConfig contains backend connection parameters
type EndpointConfig struct {
	URL         string `json:"url" yaml:"url"`
	AppID       int    `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	DialTimeout string `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"` // e.g., "30s", "1m"
}

// DialURL returns the endpoint URL with the app id and language attached as
// query parameters.
func (e EndpointConfig) DialURL() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return e.URL
	}
	q := u.Query()
	if e.AppID > 0 {
		q.Set("app_id", strconv.Itoa(e.AppID))
	}
	if e.Language != "" {
		q.Set("l", e.Language)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ParseDialTimeout converts the dial timeout string to time.Duration
func (e EndpointConfig) ParseDialTimeout() (time.Duration, error) {
	if e.DialTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(e.DialTimeout)
}

// SessionConfig contains session behaviour parameters
type SessionConfig struct {
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	IsEU  bool   `json:"is_eu" yaml:"is_eu"`
	// RealityCheckMinutes applies when the jurisdiction requires a reality
	// check but does not specify its own interval.
	RealityCheckMinutes int `json:"reality_check_minutes,omitempty" yaml:"reality_check_minutes,omitempty"`
}

// CacheConfig contains session persistence parameters
type CacheConfig struct {
	Type   string `json:"type" yaml:"type"` // "memory" or "sqlite"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // zerolog level name
	Pretty bool   `json:"pretty" yaml:"pretty"` // console writer instead of JSON
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// LoadEnv overlays configuration from the environment, reading a .env file
// first when one exists. Environment values win over file values.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("TRADECORE_ENDPOINT"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("TRADECORE_TOKEN"); v != "" {
		c.Session.Token = v
	}
	if v := os.Getenv("TRADECORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint.url is required")
	}
	if _, err := c.Endpoint.ParseDialTimeout(); err != nil {
		return fmt.Errorf("endpoint.dial_timeout: %w", err)
	}
	if c.Endpoint.AppID < 0 {
		return fmt.Errorf("endpoint.app_id must not be negative")
	}
	if c.Session.RealityCheckMinutes < 0 {
		return fmt.Errorf("session.reality_check_minutes must not be negative")
	}
	if c.Cache.Type != "memory" && c.Cache.Type != "sqlite" {
		return fmt.Errorf("cache.type must be 'memory' or 'sqlite'")
	}
	if c.Cache.Type == "sqlite" && c.Cache.DBPath == "" {
		return fmt.Errorf("cache db_path required for SQLite type")
	}
	switch c.Log.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL:         "wss://api.example.com/v1",
			Language:    "EN",
			DialTimeout: "30s",
		},
		Session: SessionConfig{
			RealityCheckMinutes: 60,
		},
		Cache: CacheConfig{
			Type:   "sqlite",
			DBPath: "./session.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
