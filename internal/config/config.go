package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/marketplace/internal/domain/access"
)

// Config holds the marketplace API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Seed     SeedConfig     `yaml:"seed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig maps bearer tokens to callers.
type AuthConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenConfig describes one bearer token. A visitor token carries no person.
type TokenConfig struct {
	Token      string            `yaml:"token"`
	PersonID   string            `yaml:"person_id"`
	PersonName string            `yaml:"person_name"`
	Visitor    bool              `yaml:"visitor"`
	Projects   map[string]string `yaml:"projects"` // project id -> access level name
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SearchConfig holds pagination and batching settings.
type SearchConfig struct {
	DefaultPageSize   int `yaml:"default_page_size"`
	MaxPageSize       int `yaml:"max_page_size"`
	PrefetchBatchSize int `yaml:"prefetch_batch_size"` // page size used to drain visible projects
	TagBatchSize      int `yaml:"tag_batch_size"`
}

// BreakerConfig holds storage circuit breaker settings.
type BreakerConfig struct {
	Enabled          bool    `yaml:"enabled"`
	MaxRequests      uint32  `yaml:"max_requests"`
	IntervalSec      int     `yaml:"interval_sec"`
	TimeoutSec       int     `yaml:"timeout_sec"`
	MinRequests      uint32  `yaml:"min_requests"`
	ReadyToTripRatio float64 `yaml:"ready_to_trip_ratio"`
}

// SeedConfig points at an optional catalog file loaded on startup.
type SeedConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "marketplace:"
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.PrefetchBatchSize <= 0 {
		c.Search.PrefetchBatchSize = 500
	}
	if c.Search.TagBatchSize <= 0 {
		c.Search.TagBatchSize = 200
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.IntervalSec <= 0 {
		c.Breaker.IntervalSec = 60
	}
	if c.Breaker.TimeoutSec <= 0 {
		c.Breaker.TimeoutSec = 30
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 5
	}
	if c.Breaker.ReadyToTripRatio <= 0 {
		c.Breaker.ReadyToTripRatio = 0.6
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Breaker.ReadyToTripRatio > 1 {
		return fmt.Errorf("breaker.ready_to_trip_ratio must be in (0, 1], got %v", c.Breaker.ReadyToTripRatio)
	}

	seen := make(map[string]struct{}, len(c.Auth.Tokens))
	for i, t := range c.Auth.Tokens {
		if t.Token == "" {
			return fmt.Errorf("auth.tokens[%d].token is required", i)
		}
		if _, dup := seen[t.Token]; dup {
			return fmt.Errorf("auth.tokens[%d]: duplicate token", i)
		}
		seen[t.Token] = struct{}{}

		if t.Visitor {
			if t.PersonID != "" || len(t.Projects) > 0 {
				return fmt.Errorf("auth.tokens[%d]: visitor token must not carry a person or projects", i)
			}
			continue
		}
		if err := uuid.Validate(t.PersonID); err != nil {
			return fmt.Errorf("auth.tokens[%d].person_id must be a UUID: %w", i, err)
		}
		for id, level := range t.Projects {
			if _, err := access.ParseLevel(level); err != nil {
				return fmt.Errorf("auth.tokens[%d].projects.%s: %w", i, id, err)
			}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
