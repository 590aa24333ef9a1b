// Package config loads configuration from an optional YAML file and
// environment variables. Environment values override file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Expansion mode names accepted by the engine configuration.
const (
	ModeSingle        = "single"
	ModeRecursive     = "recursive"
	ModeMainRecursive = "main-recursive"
)

// DefaultCacheCapacity is the directory cache bound used when none is set.
const DefaultCacheCapacity = 150

// Config holds all engine and CLI configuration.
type Config struct {
	// Engine
	RootPath      string `yaml:"root"`
	CacheCapacity int    `yaml:"cache_capacity"`
	ExpandMode    string `yaml:"expand_mode"`
	CollapseMode  string `yaml:"collapse_mode"`
	PrefetchDepth int    `yaml:"prefetch_depth"`

	// Watcher (0 disables)
	WatchInterval time.Duration `yaml:"watch_interval"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Metrics endpoint ("" disables)
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		RootPath:      "",
		CacheCapacity: DefaultCacheCapacity,
		ExpandMode:    ModeSingle,
		CollapseMode:  ModeRecursive,
		PrefetchDepth: 2,
		WatchInterval: 0,
		LogLevel:      "info",
		LogFormat:     "console",
		MetricsAddr:   "",
	}
}

// Load reads configuration, starting from defaults, applying the YAML file
// named by ORBIT_CONFIG (if any), then the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("ORBIT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from a YAML file over the defaults, then
// applies the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.RootPath = envOr("ORBIT_ROOT", c.RootPath)
	c.CacheCapacity = envInt("ORBIT_CACHE_CAPACITY", c.CacheCapacity)
	c.ExpandMode = envOr("ORBIT_EXPAND_MODE", c.ExpandMode)
	c.CollapseMode = envOr("ORBIT_COLLAPSE_MODE", c.CollapseMode)
	c.PrefetchDepth = envInt("ORBIT_PREFETCH_DEPTH", c.PrefetchDepth)
	c.WatchInterval = envDuration("ORBIT_WATCH_INTERVAL", c.WatchInterval)
	c.LogLevel = envOr("ORBIT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("ORBIT_LOG_FORMAT", c.LogFormat)
	c.MetricsAddr = envOr("ORBIT_METRICS_ADDR", c.MetricsAddr)
}

// Validate checks mode names and numeric bounds.
func (c *Config) Validate() error {
	if !validMode(c.ExpandMode) {
		return fmt.Errorf("invalid expand_mode %q", c.ExpandMode)
	}
	if !validMode(c.CollapseMode) {
		return fmt.Errorf("invalid collapse_mode %q", c.CollapseMode)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.PrefetchDepth < 0 {
		return fmt.Errorf("prefetch_depth must be >= 0, got %d", c.PrefetchDepth)
	}
	return nil
}

func validMode(mode string) bool {
	switch mode {
	case ModeSingle, ModeRecursive, ModeMainRecursive:
		return true
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
