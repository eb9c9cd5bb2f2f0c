// Package config loads engine and workflow settings from YAML. It exists for
// deployments that wire AgentWeave from a file instead of code; everything
// here maps onto the functional options of the engine and workflow packages.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML support for strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// RedisConfig configures the Redis context store backend.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	TTL      Duration `yaml:"ttl"`
}

// StoreConfig selects and configures the context store.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// Config is the root configuration document.
type Config struct {
	// Topology optionally pins the workflow pattern built from this config.
	Topology string `yaml:"topology"`

	MaxIterations     int      `yaml:"max_iterations"`
	MaxHandoffs       int      `yaml:"max_handoffs"`
	FallbackCandidate string   `yaml:"fallback_candidate"`
	EventBufferSize   int      `yaml:"event_buffer_size"`
	MaxConcurrentRuns int64    `yaml:"max_concurrent_runs"`
	MaxParallel       int      `yaml:"max_parallel"`
	CancellationGrace Duration `yaml:"cancellation_timeout"`

	Logging LoggingConfig `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
}

// Default returns the baseline configuration matching the engine's built-in
// defaults.
func Default() *Config {
	return &Config{
		MaxIterations:     10,
		MaxHandoffs:       25,
		EventBufferSize:   64,
		MaxConcurrentRuns: 16,
		CancellationGrace: Duration(5 * time.Second),
		Logging:           LoggingConfig{Level: "info", Format: "json"},
		Store:             StoreConfig{Backend: "memory"},
	}
}

// Load reads and validates a YAML config file, applying defaults for omitted
// fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	switch c.Topology {
	case "", "sequential", "concurrent", "routed", "handoff", "groupchat":
	default:
		return fmt.Errorf("unknown topology %q", c.Topology)
	}

	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	if c.MaxHandoffs < 0 {
		return fmt.Errorf("max_handoffs must not be negative")
	}
	if c.EventBufferSize < 0 {
		return fmt.Errorf("event_buffer_size must not be negative")
	}
	if c.MaxConcurrentRuns < 0 {
		return fmt.Errorf("max_concurrent_runs must not be negative")
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must not be negative")
	}

	switch c.Store.Backend {
	case "", "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	return nil
}
