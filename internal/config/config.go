package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendPebble = "pebble"
)

// DefaultFile is read from the working directory when no path is given on
// the command line.
const DefaultFile = "easel.yml"

// Environment overrides applied by Load after the file is read
const (
	EnvRedisURL = "EASEL_REDIS_URL"
	EnvAddr     = "EASEL_ADDR"
)

// EaselConfig represents the top-level easel.yml configuration
type EaselConfig struct {
	Version string         `yaml:"version"`
	Server  *ServerConfig  `yaml:"server,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Records *RecordsConfig `yaml:"records,omitempty"`
}

// ServerConfig specifies the HTTP listener
type ServerConfig struct {
	Addr         string        `yaml:"addr,omitempty"`          // Default: ":8000"
	StaticDir    string        `yaml:"static_dir,omitempty"`    // Directory holding index.html and parse.html. Default: "."
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`  // Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"` // Default: 10s
}

// StoreConfig selects and configures the storage engine
type StoreConfig struct {
	Backend        string        `yaml:"backend,omitempty"`          // memory, redis or pebble. Default: memory
	RedisURL       string        `yaml:"redis_url,omitempty"`        // Required for redis
	RedisKeyPrefix string        `yaml:"redis_key_prefix,omitempty"` // Default: "easel"
	PebbleDir      string        `yaml:"pebble_dir,omitempty"`       // Required for pebble
	Timeout        time.Duration `yaml:"timeout,omitempty"`          // Per store call. Default: 2s
}

// RecordsConfig bounds record sizes and page sizes
type RecordsConfig struct {
	DefaultSize      int `yaml:"default_size,omitempty"`       // Default: 5
	MaxSize          int `yaml:"max_size,omitempty"`           // Default: 64
	DefaultPageLimit int `yaml:"default_page_limit,omitempty"` // Default: 20
	MaxPageLimit     int `yaml:"max_page_limit,omitempty"`     // Default: 200
}

// Default returns a validated configuration with every default applied.
func Default() *EaselConfig {
	c := &EaselConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return c
}

// Validate applies defaults, then performs strict validation on the configuration
func (c *EaselConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}

	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}

	if c.Records == nil {
		c.Records = &RecordsConfig{}
	}
	return c.Records.Validate()
}

// Validate applies server defaults and checks timeouts
func (s *ServerConfig) Validate() error {
	if s.Addr == "" {
		s.Addr = ":8000"
	}
	if s.StaticDir == "" {
		s.StaticDir = "."
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 5 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	return nil
}

// Validate applies store defaults and checks backend-specific settings
func (s *StoreConfig) Validate() error {
	if s.Backend == "" {
		s.Backend = BackendMemory
	}
	if s.RedisKeyPrefix == "" {
		s.RedisKeyPrefix = "easel"
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Second
	}
	if s.Timeout < 0 {
		return fmt.Errorf("store.timeout must be positive, got %s", s.Timeout)
	}

	switch s.Backend {
	case BackendMemory:
	case BackendRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for backend 'redis'")
		}
	case BackendPebble:
		if s.PebbleDir == "" {
			return fmt.Errorf("store.pebble_dir is required for backend 'pebble'")
		}
	default:
		return fmt.Errorf("invalid store.backend: %s (must be 'memory', 'redis', or 'pebble')", s.Backend)
	}
	return nil
}

// Validate applies record defaults and checks the limits are consistent
func (r *RecordsConfig) Validate() error {
	if r.DefaultSize == 0 {
		r.DefaultSize = 5
	}
	if r.MaxSize == 0 {
		r.MaxSize = 64
	}
	if r.DefaultPageLimit == 0 {
		r.DefaultPageLimit = 20
	}
	if r.MaxPageLimit == 0 {
		r.MaxPageLimit = 200
	}

	if r.DefaultSize < 1 {
		return fmt.Errorf("records.default_size must be >= 1, got %d", r.DefaultSize)
	}
	if r.MaxSize < r.DefaultSize {
		return fmt.Errorf("records.max_size (%d) must be >= records.default_size (%d)", r.MaxSize, r.DefaultSize)
	}
	if r.MaxPageLimit < 1 {
		return fmt.Errorf("records.max_page_limit must be >= 1, got %d", r.MaxPageLimit)
	}
	if r.DefaultPageLimit < 1 || r.DefaultPageLimit > r.MaxPageLimit {
		return fmt.Errorf("records.default_page_limit must be between 1 and %d, got %d", r.MaxPageLimit, r.DefaultPageLimit)
	}
	return nil
}

// Load reads and validates easel.yml from the specified path. An empty path
// yields the defaults. Environment overrides are applied before validation.
func Load(path string) (*EaselConfig, error) {
	config := EaselConfig{Version: "1.0"}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		config = EaselConfig{}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *EaselConfig) applyEnv() {
	if url := os.Getenv(EnvRedisURL); url != "" {
		if c.Store == nil {
			c.Store = &StoreConfig{}
		}
		c.Store.RedisURL = url
		if c.Store.Backend == "" {
			c.Store.Backend = BackendRedis
		}
	}
	if addr := os.Getenv(EnvAddr); addr != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.Addr = addr
	}
}
