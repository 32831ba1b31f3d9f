// Package config provides configuration management for the etl-ops CLI.
//
// It implements the disciplined Viper pattern where Viper stays contained
// in this package and the rest of the codebase receives explicit Config structs.
// Configuration sources are resolved in this order: flags > env > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blackwell-systems/gcp-etl-ops/internal/secrets"
)

// Config is the explicit configuration struct
// This is what the rest of the codebase sees
type Config struct {
	Project      string
	Environment  string
	Region       string
	OutputsFile  string
	SecretName   string // template, "{env}" expands to Environment
	CheckTimeout time.Duration
	Password     secrets.PasswordPolicy
}

// SecretID resolves the secret name template against the environment.
func (c *Config) SecretID() string {
	return strings.ReplaceAll(c.SecretName, "{env}", c.Environment)
}

// Init initializes viper with defaults and config file paths
func Init() error {
	// Set config file name and type
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config file search paths
	viper.AddConfigPath("$HOME/.etl-ops")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("project", "")
	viper.SetDefault("environment", "dev")
	viper.SetDefault("region", "us-central1")
	viper.SetDefault("outputs-file", "./terraform-outputs.json")
	viper.SetDefault("secret-name", "{env}-sql-password")
	viper.SetDefault("check-timeout", "30s")
	viper.SetDefault("password-length", 24)
	viper.SetDefault("password-require-lower", true)
	viper.SetDefault("password-require-upper", true)
	viper.SetDefault("password-require-digit", true)
	viper.SetDefault("password-require-symbol", true)

	// Bind environment variables with prefix
	viper.SetEnvPrefix("ETL_OPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

// Load reads from all sources and returns explicit Config
func Load() (*Config, error) {
	cfg := current()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// current reads from all sources without validating, for paths that need
// to inspect a not-yet-complete configuration (config set).
func current() *Config {
	return &Config{
		Project:      viper.GetString("project"),
		Environment:  viper.GetString("environment"),
		Region:       viper.GetString("region"),
		OutputsFile:  viper.GetString("outputs-file"),
		SecretName:   viper.GetString("secret-name"),
		CheckTimeout: viper.GetDuration("check-timeout"),
		Password: secrets.PasswordPolicy{
			Length:        viper.GetInt("password-length"),
			RequireLower:  viper.GetBool("password-require-lower"),
			RequireUpper:  viper.GetBool("password-require-upper"),
			RequireDigit:  viper.GetBool("password-require-digit"),
			RequireSymbol: viper.GetBool("password-require-symbol"),
		},
	}
}

// Validate ensures config is sane
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required (use -p, ETL_OPS_PROJECT, or the config file)")
	}

	if c.Environment == "" {
		return fmt.Errorf("environment is required (use -e, ETL_OPS_ENVIRONMENT, or the config file)")
	}

	if c.Region == "" {
		return fmt.Errorf("region is required")
	}

	if c.SecretName == "" {
		return fmt.Errorf("secret-name must not be empty")
	}

	if c.CheckTimeout <= 0 {
		return fmt.Errorf("invalid check-timeout: %s", c.CheckTimeout)
	}

	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("invalid password policy: %w", err)
	}

	return nil
}

// Save writes current config to file
func Save(cfg *Config) error {
	viper.Set("project", cfg.Project)
	viper.Set("environment", cfg.Environment)
	viper.Set("region", cfg.Region)
	viper.Set("outputs-file", cfg.OutputsFile)
	viper.Set("secret-name", cfg.SecretName)
	viper.Set("check-timeout", cfg.CheckTimeout.String())
	viper.Set("password-length", cfg.Password.Length)
	viper.Set("password-require-lower", cfg.Password.RequireLower)
	viper.Set("password-require-upper", cfg.Password.RequireUpper)
	viper.Set("password-require-digit", cfg.Password.RequireDigit)
	viper.Set("password-require-symbol", cfg.Password.RequireSymbol)

	if err := viper.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return viper.WriteConfigAs("config.yaml")
		}
		return err
	}
	return nil
}

// SetKey applies a single key to the current configuration, validates the
// result, and persists it through Save. An edit that would leave the config
// invalid is rejected without touching the file.
func SetKey(key, value string) error {
	cfg := current()

	switch key {
	case "project":
		cfg.Project = value
	case "environment":
		cfg.Environment = value
	case "region":
		cfg.Region = value
	case "outputs-file":
		cfg.OutputsFile = value
	case "secret-name":
		cfg.SecretName = value
	case "check-timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		cfg.CheckTimeout = d
	case "password-length":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		cfg.Password.Length = n
	case "password-require-lower":
		return setPasswordClass(cfg, &cfg.Password.RequireLower, key, value)
	case "password-require-upper":
		return setPasswordClass(cfg, &cfg.Password.RequireUpper, key, value)
	case "password-require-digit":
		return setPasswordClass(cfg, &cfg.Password.RequireDigit, key, value)
	case "password-require-symbol":
		return setPasswordClass(cfg, &cfg.Password.RequireSymbol, key, value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	return validateAndSave(cfg)
}

func setPasswordClass(cfg *Config, field *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*field = b
	return validateAndSave(cfg)
}

func validateAndSave(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to persist: %w", err)
	}
	return Save(cfg)
}

// Display shows current config (for etl-ops config get)
func Display() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = "(not found)"
	}

	return fmt.Sprintf(`Configuration:
  project:            %s
  environment:        %s
  region:             %s
  outputs-file:       %s
  secret-name:        %s (resolved: %s)
  check-timeout:      %s

Password policy:
  length:             %d
  require lower:      %t
  require upper:      %t
  require digit:      %t
  require symbol:     %t

Sources:
  Config file:        %s
  Environment:        ETL_OPS_*
  Flags:              (per command)
`,
		cfg.Project,
		cfg.Environment,
		cfg.Region,
		cfg.OutputsFile,
		cfg.SecretName,
		cfg.SecretID(),
		cfg.CheckTimeout,
		cfg.Password.Length,
		cfg.Password.RequireLower,
		cfg.Password.RequireUpper,
		cfg.Password.RequireDigit,
		cfg.Password.RequireSymbol,
		configFile,
	), nil
}
