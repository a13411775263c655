// Package config loads the funnelforge site configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the expected file name in a site directory.
const ConfigFileName = "funnelforge.yaml"

// Config represents the funnelforge configuration.
type Config struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Server      ServerConfig  `yaml:"server"`
	Store       StoreConfig   `yaml:"store"`
	Styling     StylingConfig `yaml:"styling"`
	Watch       bool          `yaml:"watch"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Host        string           `yaml:"host,omitempty"`
	Port        int              `yaml:"port,omitempty"`
	CORSOrigins []string         `yaml:"cors_origins,omitempty"`
	RateLimit   *RateLimitConfig `yaml:"rate_limit,omitempty"`
	Shutdown    string           `yaml:"shutdown_timeout,omitempty"` // e.g. "5s"
}

// RateLimitConfig throttles the public storefront endpoints.
type RateLimitConfig struct {
	RPS    float64 `yaml:"rps,omitempty"`
	Burst  int     `yaml:"burst,omitempty"`
	MaxIPs int     `yaml:"max_ips,omitempty"`
}

// StoreConfig selects the page persistence backend.
type StoreConfig struct {
	Type  string `yaml:"type,omitempty"`  // "file", "sqlite", "postgres", "memory"
	Dir   string `yaml:"dir,omitempty"`   // for file: pages directory
	DB    string `yaml:"db,omitempty"`    // for sqlite: database file path
	DSN   string `yaml:"dsn,omitempty"`   // for postgres: connection string
	Table string `yaml:"table,omitempty"` // for sqlite/postgres: table name
}

// StylingConfig carries site-wide presentation defaults handed to the
// storefront layout.
type StylingConfig struct {
	Theme        string `yaml:"theme,omitempty"`
	PrimaryColor string `yaml:"primary_color,omitempty"`
	Font         string `yaml:"font,omitempty"`
}

// Load reads a config file. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromDir loads the config from a site directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, ConfigFileName))
}

// Addr returns the listen address (default 127.0.0.1:8090).
func (c *Config) Addr() string {
	host := c.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8090
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ShutdownTimeout returns the graceful-shutdown window (default 5s).
func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.Shutdown == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.Server.Shutdown)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// StoreType returns the persistence backend (default "file").
func (c *Config) StoreType() string {
	if c.Store.Type == "" {
		return "file"
	}
	return c.Store.Type
}

// PagesDir returns the file-store directory (default "./pages").
func (c *Config) PagesDir() string {
	if c.Store.Dir == "" {
		return "./pages"
	}
	return c.Store.Dir
}

// DBPath returns the sqlite database path (default "./funnelforge.db").
func (c *Config) DBPath() string {
	if c.Store.DB == "" {
		return "./funnelforge.db"
	}
	return c.Store.DB
}

// StoreTable returns the pages table name (default "pages").
func (c *Config) StoreTable() string {
	if c.Store.Table == "" {
		return "pages"
	}
	return c.Store.Table
}

// RateLimitRPS returns the storefront rate limit (default 20 req/s).
func (c *Config) RateLimitRPS() float64 {
	if c.Server.RateLimit == nil || c.Server.RateLimit.RPS <= 0 {
		return 20
	}
	return c.Server.RateLimit.RPS
}

// RateLimitBurst returns the token-bucket burst (default 40).
func (c *Config) RateLimitBurst() int {
	if c.Server.RateLimit == nil || c.Server.RateLimit.Burst <= 0 {
		return 40
	}
	return c.Server.RateLimit.Burst
}

// RateLimitMaxIPs returns how many client IPs are tracked (default 1000).
func (c *Config) RateLimitMaxIPs() int {
	if c.Server.RateLimit == nil || c.Server.RateLimit.MaxIPs <= 0 {
		return 1000
	}
	return c.Server.RateLimit.MaxIPs
}
