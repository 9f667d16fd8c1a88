// Package config handles xrld configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level xrld configuration.
type Config struct {
	// Port the HTTP server listens on. Default: 5000.
	Port int `yaml:"port"`

	// ImagesDir is where rendered images and PDFs are written. Default: "images".
	ImagesDir string `yaml:"images_dir"`

	// RoutesDB is the SQLite file backing custom route slots and rate-limit
	// rules. Default: "db/routes.db".
	RoutesDB string `yaml:"routes_db"`

	// Slots is the number of configurable custom route slots. Default: 3.
	Slots int `yaml:"slots"`

	// AllowPrivateURLs permits capture targets that resolve to private or
	// loopback addresses. Default: true — the demo captures its own example
	// sites served on localhost. Turn off when exposing the service.
	AllowPrivateURLs *bool `yaml:"allow_private_urls"`

	Browser BrowserConfig `yaml:"browser"`
	Fetch   FetchConfig   `yaml:"fetch"`
}

// BrowserConfig controls the Chrome lifecycle and capture viewport.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome.
	Remote string `yaml:"remote"`

	// ViewportWidth/ViewportHeight set the capture viewport.
	// Defaults: 2000 x 6000 — tall enough that most pages render without
	// scroll-driven lazy loading kicking in mid-capture.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// MemoryLimit in bytes. Recycle Chrome when exceeded. Default: 1GB.
	MemoryLimit int64 `yaml:"memory_limit"`

	// RecycleInterval is the maximum lifetime of a Chrome process. Default: 4h.
	RecycleInterval time.Duration `yaml:"recycle_interval"`

	// Stealth: "headless" (default) or "headful" (requires Xvfb).
	Stealth string `yaml:"stealth"`

	// XvfbDisplay for headful mode. Default: ":99".
	XvfbDisplay string `yaml:"xvfb_display"`

	// ResourceBlocking lists resource types to block (fonts, media).
	// Images are never blocked here — this service screenshots pages.
	ResourceBlocking []string `yaml:"resource_blocking"`

	// NavTimeout bounds page navigation + load. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// FetchConfig controls the no-browser HTTP fetcher used by the reading view.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`    // default 30s
	MaxBytes  int64         `yaml:"max_bytes"`  // default 10MB
	UserAgent string        `yaml:"user_agent"` // default "xrld/1.0"
}

// Load reads the YAML file at path (when path is non-empty), applies
// environment overrides, then defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("IMAGES_DIR"); v != "" {
		c.ImagesDir = v
	}
	if v := os.Getenv("ROUTES_DB"); v != "" {
		c.RoutesDB = v
	}
	if v := os.Getenv("BROWSER_REMOTE_URL"); v != "" {
		c.Browser.Remote = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 5000
	}
	if c.ImagesDir == "" {
		c.ImagesDir = "images"
	}
	if c.RoutesDB == "" {
		c.RoutesDB = "db/routes.db"
	}
	if c.Slots <= 0 {
		c.Slots = 3
	}
	if c.AllowPrivateURLs == nil {
		t := true
		c.AllowPrivateURLs = &t
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 2000
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 6000
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 10 * 1024 * 1024
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "xrld/1.0"
	}
}

// AllowPrivate reports the resolved private-URL policy.
func (c *Config) AllowPrivate() bool {
	return c.AllowPrivateURLs != nil && *c.AllowPrivateURLs
}
