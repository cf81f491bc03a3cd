// Package config provides hierarchical configuration management: defaults,
// an optional YAML config file and BANKFILES_* environment variables, in
// increasing order of precedence. A .env file is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mlindgren/bankfiles/internal/logging"
)

var envOnce sync.Once

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter      string `mapstructure:"delimiter" yaml:"delimiter"`
		IncludeHeaders bool   `mapstructure:"include_headers" yaml:"include_headers"`
	} `mapstructure:"csv" yaml:"csv"`

	Sepa struct {
		Debtor struct {
			Name         string   `mapstructure:"name" yaml:"name"`
			Account      string   `mapstructure:"account" yaml:"account"`
			BIC          string   `mapstructure:"bic" yaml:"bic"`
			OrgID        string   `mapstructure:"org_id" yaml:"org_id"`
			AddressLines []string `mapstructure:"address_lines" yaml:"address_lines"`
			CountryCode  string   `mapstructure:"country_code" yaml:"country_code"`
		} `mapstructure:"debtor" yaml:"debtor"`
	} `mapstructure:"sepa" yaml:"sepa"`
}

// LoadEnv loads environment variables from a .env file in the working
// directory or its parent, if one exists.
func LoadEnv() {
	envOnce.Do(func() {
		for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
			if _, err := os.Stat(envFile); err == nil {
				_ = godotenv.Load(envFile)
				return
			}
		}
	})
}

// Load initializes the configuration with hierarchical loading.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.bankfiles")
	v.AddConfigPath(".bankfiles")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BANKFILES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.include_headers", true)
}

func validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	if len(cfg.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got %q", cfg.CSV.Delimiter)
	}
	return nil
}

// Logger builds the application logger from the configuration.
func (c *Config) Logger() logging.Logger {
	return logging.NewLogrusAdapter(c.Log.Level, c.Log.Format)
}
