// Package common provides shared utilities for Portgraph
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Portgraph
type Config struct {
	Environment string        `toml:"environment"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// StorageConfig holds SurrealDB connection configuration
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	FactSet FactSetConfig `toml:"factset"`
	Quotes  QuotesConfig  `toml:"quotes"`
}

// FactSetConfig holds FactSet API configuration. Credentials may come
// from the TOML file, from a dotenv credentials file, or from the
// FDS_USERNAME / FDS_API_KEY environment variables.
type FactSetConfig struct {
	BaseURL         string `toml:"base_url"`
	Username        string `toml:"username"`
	APIKey          string `toml:"api_key"`
	CredentialsFile string `toml:"credentials_file"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	MaxRetries      int    `toml:"max_retries"`
	MaxRetryDelay   string `toml:"max_retry_delay"`
}

// GetTimeout parses and returns the timeout duration
func (c *FactSetConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetMaxRetryDelay parses and returns the ceiling applied to
// server-requested retry waits.
func (c *FactSetConfig) GetMaxRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.MaxRetryDelay)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// QuotesConfig holds the public quote service configuration
type QuotesConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *QuotesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "portgraph",
			Database:  "graph",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			FactSet: FactSetConfig{
				BaseURL:       "https://api.factset.com",
				RateLimit:     5,
				Timeout:       "30s",
				MaxRetries:    3,
				MaxRetryDelay: "5m",
			},
			Quotes: QuotesConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 2,
				Timeout:   "15s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	loadCredentialsFile(config)
	applyEnvOverrides(config)

	return config, nil
}

// loadCredentialsFile merges FactSet credentials from a dotenv-style
// file (FDS_USERNAME / FDS_API_KEY keys). Values already present in the
// process environment win, matching godotenv semantics.
func loadCredentialsFile(config *Config) {
	path := config.Clients.FactSet.CredentialsFile
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	_ = godotenv.Load(path)
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PORTGRAPH_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("PORTGRAPH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("PORTGRAPH_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if ns := os.Getenv("PORTGRAPH_STORAGE_NAMESPACE"); ns != "" {
		config.Storage.Namespace = ns
	}
	if db := os.Getenv("PORTGRAPH_STORAGE_DATABASE"); db != "" {
		config.Storage.Database = db
	}

	if user := os.Getenv("FDS_USERNAME"); user != "" {
		config.Clients.FactSet.Username = user
	}
	if key := os.Getenv("FDS_API_KEY"); key != "" {
		config.Clients.FactSet.APIKey = key
	}

	if rl := os.Getenv("PORTGRAPH_FACTSET_RATE_LIMIT"); rl != "" {
		if n, err := strconv.Atoi(rl); err == nil && n > 0 {
			config.Clients.FactSet.RateLimit = n
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// HasFactSetCredentials reports whether both halves of the FactSet
// basic-auth pair are present.
func (c *Config) HasFactSetCredentials() bool {
	return c.Clients.FactSet.Username != "" && c.Clients.FactSet.APIKey != ""
}
