// Package config loads rooftag-engine configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/rooftag-io/rooftag-engine/pkg/database"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// Config holds all configuration for rooftag-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (passwords, API
// keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8790"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// AI provider configuration
	AI AIConfig `yaml:"ai"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Upload worker configuration
	Upload UploadConfig `yaml:"upload"`

	// PaletteFile optionally overrides the default roof color palette.
	// The file is a YAML list of color labels.
	PaletteFile string `yaml:"palette_file" env:"PALETTE_FILE" env-default:""`

	// Palette is the effective allowed-color list, resolved at load time.
	Palette []string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"rooftag"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"rooftag_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// Connection converts the loaded settings into a database.Config.
func (d *DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Host:           d.Host,
		Port:           d.Port,
		User:           d.User,
		Password:       d.Password,
		Database:       d.Database,
		SSLMode:        d.SSLMode,
		MaxConnections: d.MaxConnections,
	}
}

// AIConfig holds inference provider configuration. Model is a free-form
// identifier resolved at startup to pick the provider transport.
type AIConfig struct {
	Model           string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	Endpoint        string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	APIKey          string `yaml:"-" env:"AI_API_KEY"`        // Secret - not in YAML
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	MistralAPIKey   string `yaml:"-" env:"MISTRAL_API_KEY"`   // Secret - not in YAML
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether bearer tokens are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSEndpoint is the JWKS URL used to verify bearer tokens.
	JWKSEndpoint string `yaml:"jwks_endpoint" env:"AUTH_JWKS_ENDPOINT" env-default:""`
}

// UploadConfig holds settings for the pending-upload worker.
type UploadConfig struct {
	// Enabled turns the worker on; disable to run suggest/validate only.
	Enabled bool `yaml:"enabled" env:"UPLOAD_ENABLED" env-default:"false"`
	// Endpoint receives the roof color tag submissions.
	Endpoint string `yaml:"endpoint" env:"UPLOAD_ENDPOINT" env-default:""`
	// Token authenticates tag submissions. Secret - not in YAML.
	Token string `yaml:"-" env:"UPLOAD_TOKEN"`
	// IntervalSeconds is how often the worker drains the pending queue.
	IntervalSeconds int `yaml:"interval_seconds" env:"UPLOAD_INTERVAL_SECONDS" env-default:"60"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// Fall back to pure environment configuration when no file exists.
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.resolvePalette(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolvePalette loads the palette override file, or falls back to the
// default ten-color palette.
func (c *Config) resolvePalette() error {
	if c.PaletteFile == "" {
		c.Palette = models.DefaultPalette()
		return nil
	}

	data, err := os.ReadFile(c.PaletteFile)
	if err != nil {
		return fmt.Errorf("failed to read palette file: %w", err)
	}

	var palette []string
	if err := yaml.Unmarshal(data, &palette); err != nil {
		return fmt.Errorf("failed to parse palette file: %w", err)
	}
	if len(palette) == 0 {
		return fmt.Errorf("palette file %s contains no colors", c.PaletteFile)
	}

	c.Palette = palette
	return nil
}
