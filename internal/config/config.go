// Package config provides unified configuration loading for the FAQ engine.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Fallback providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// DefaultSystemPrompt is the instruction given to the generative fallback.
const DefaultSystemPrompt = "You are a helpful FAQ chatbot."

// Config holds all configuration for the FAQ engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Dataset       DatasetConfig       `yaml:"dataset"`
	Database      DatabaseConfig      `yaml:"database"`
	Matching      MatchingConfig      `yaml:"matching"`
	Fallback      FallbackConfig      `yaml:"fallback"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatasetConfig says where the reference table is loaded from.
type DatasetConfig struct {
	Source string `yaml:"source"` // csv, sqlite or postgres
	Path   string `yaml:"path"`   // CSV path when source is csv
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// MatchingConfig holds the match-and-answer settings.
type MatchingConfig struct {
	Threshold int `yaml:"threshold"`
}

// FallbackConfig holds generative fallback settings.
type FallbackConfig struct {
	Provider        string        `yaml:"provider"` // openai or claude
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"-"`
	SystemPrompt    string        `yaml:"system_prompt"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
	MaxBackoff      time.Duration `yaml:"max_backoff"`
}

// CacheConfig holds fallback answer cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads .env files, then the YAML file at path, then environment overrides.
func Load(path string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError(fmt.Sprintf("read config file %s", path), err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError(fmt.Sprintf("parse config file %s", path), err)
		}

		if cfg.Dataset.Source == SourceCSV && cfg.Dataset.Path != "" {
			cfg.Dataset.Path = ResolveRelativePath(path, cfg.Dataset.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			Source: SourceCSV,
			Path:   "faq_data.csv",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "faq-engine.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Matching: MatchingConfig{
			Threshold: 75,
		},
		Fallback: FallbackConfig{
			Provider:        ProviderOpenAI,
			Model:           "gpt-4",
			BaseURL:         "https://api.openai.com/v1",
			SystemPrompt:    DefaultSystemPrompt,
			MaxOutputTokens: 150,
			Timeout:         30 * time.Second,
			MaxRetries:      2,
			InitialBackoff:  time.Second,
			MaxBackoff:      10 * time.Second,
		},
		Cache: CacheConfig{
			Driver:     CacheNone,
			TTL:        time.Hour,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "faq:fallback:",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			ServiceName: "faq-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return domain.ConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			return domain.ConfigError("dataset.path is required for csv source", nil)
		}
	case SourceSQLite, SourcePostgres:
	default:
		return domain.ConfigError(fmt.Sprintf("invalid dataset source: %s", c.Dataset.Source), nil)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return domain.ConfigError(fmt.Sprintf("invalid database driver: %s", c.Database.Driver), nil)
	}

	if c.Matching.Threshold < 0 || c.Matching.Threshold > 100 {
		return domain.ConfigError(fmt.Sprintf("matching.threshold must be between 0 and 100, got %d", c.Matching.Threshold), nil)
	}

	if c.Fallback.Provider != ProviderOpenAI && c.Fallback.Provider != ProviderClaude {
		return domain.ConfigError(fmt.Sprintf("invalid fallback provider: %s", c.Fallback.Provider), nil)
	}

	if c.Fallback.Model == "" {
		return domain.ConfigError("fallback.model is required", nil)
	}

	if c.Fallback.MaxOutputTokens < 1 {
		return domain.ConfigError("fallback.max_output_tokens must be positive", nil)
	}

	if c.Fallback.MaxRetries < 0 {
		return domain.ConfigError("fallback.max_retries must not be negative", nil)
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return domain.ConfigError(fmt.Sprintf("invalid cache driver: %s", c.Cache.Driver), nil)
	}

	return nil
}

// CredentialEnvVar names the environment variable holding the API key of the
// configured fallback provider.
func (c *Config) CredentialEnvVar() string {
	if c.Fallback.Provider == ProviderClaude {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// RequireCredential fails when the fallback provider has no API key. Commands
// that serve queries call it before accepting input.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.Fallback.APIKey) == "" {
		return domain.MissingCredentialError(
			fmt.Sprintf("%s is not set; the generative fallback needs it to answer unmatched questions", c.CredentialEnvVar()),
			nil,
		)
	}
	return nil
}

// DSN returns the connection string for the selected driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLite.Path
	}
	return c.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("FAQ_DATASET_SOURCE"); v != "" {
		cfg.Dataset.Source = v
	}

	if v := os.Getenv("FAQ_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}

	if v := os.Getenv("FAQ_MATCH_THRESHOLD"); v != "" {
		if threshold, err := strconv.Atoi(v); err == nil {
			cfg.Matching.Threshold = threshold
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = CacheRedis
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("FALLBACK_PROVIDER"); v != "" {
		cfg.Fallback.Provider = v
	}

	if v := os.Getenv("FALLBACK_MODEL"); v != "" {
		cfg.Fallback.Model = v
	}

	if v := os.Getenv("FALLBACK_BASE_URL"); v != "" {
		cfg.Fallback.BaseURL = v
	}

	// The key follows the provider, so read it after FALLBACK_PROVIDER.
	cfg.Fallback.APIKey = os.Getenv(cfg.CredentialEnvVar())

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
