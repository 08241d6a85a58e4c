package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds the indexgate configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Engine  EngineConfig  `yaml:"engine"`
	Stores  StoresConfig  `yaml:"stores"`
	Schema  SchemaConfig  `yaml:"schema"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin and tenant authentication settings.
type AuthConfig struct {
	AdminKeys          []string `yaml:"admin_keys"`
	JWTSecret          string   `yaml:"jwt_secret"`
	DefaultTokenTTLSec int      `yaml:"default_token_ttl_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	Addresses        []string `yaml:"addresses"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"`
	TimeoutSec       int      `yaml:"timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	InsecureSkipTLS  bool     `yaml:"insecure_skip_tls"`
	Refresh          string   `yaml:"refresh"` // "", true, false, wait_for
}

// StoresConfig holds config store persistence settings.
type StoresConfig struct {
	Backend         string      `yaml:"backend"` // file, redis (default: file)
	MappingsPath    string      `yaml:"mappings_path"`
	APIKeysPath     string      `yaml:"apikeys_path"`
	CreateIfMissing bool        `yaml:"create_if_missing"`
	Redis           RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis settings for the redis store backend.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SchemaConfig holds schema compiler settings.
type SchemaConfig struct {
	MaxGram int `yaml:"max_gram"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}
	if c.Engine.TimeoutSec <= 0 {
		c.Engine.TimeoutSec = 10
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	if c.Stores.Backend == "" {
		c.Stores.Backend = BackendFile
	}
	if c.Stores.MappingsPath == "" {
		c.Stores.MappingsPath = "data/mappings.json"
	}
	if c.Stores.APIKeysPath == "" {
		c.Stores.APIKeysPath = "data/apikeys.json"
	}
	if c.Stores.Redis.KeyPrefix == "" {
		c.Stores.Redis.KeyPrefix = "indexgate:"
	}
	if c.Stores.Redis.ReadinessTimeout <= 0 {
		c.Stores.Redis.ReadinessTimeout = 10
	}
	if c.Schema.MaxGram <= 0 {
		c.Schema.MaxGram = 20
	}
	if c.Auth.DefaultTokenTTLSec <= 0 {
		c.Auth.DefaultTokenTTLSec = 3600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Engine.Addresses) == 0 {
		return fmt.Errorf("engine.addresses is required")
	}
	switch c.Engine.Refresh {
	case "", "true", "false", "wait_for":
		// ok
	default:
		return fmt.Errorf("engine.refresh must be \"true\", \"false\" or \"wait_for\", got %q", c.Engine.Refresh)
	}
	switch c.Stores.Backend {
	case BackendFile:
		if c.Stores.MappingsPath == c.Stores.APIKeysPath {
			return fmt.Errorf("stores.mappings_path and stores.apikeys_path must differ")
		}
	case BackendRedis:
		if len(c.Stores.Redis.Addrs) == 0 {
			return fmt.Errorf("stores.redis.addrs is required for the redis backend")
		}
	default:
		return fmt.Errorf("stores.backend must be %q or %q, got %q", BackendFile, BackendRedis, c.Stores.Backend)
	}
	if len(c.Auth.AdminKeys) == 0 {
		return fmt.Errorf("auth.admin_keys is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
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
