// Package config loads settings from a YAML file, a .env file and
// EDGAR_-prefixed environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingUserAgent is returned by Validate when no contact User-Agent
// is set. The SEC rejects anonymous API traffic.
var ErrMissingUserAgent = errors.New("edgar.user_agent must be set, e.g. \"Name contact@example.com\"")

// Config represents the complete application configuration.
type Config struct {
	Edgar   EdgarConfig   `mapstructure:"edgar"`
	History HistoryConfig `mapstructure:"history"`
	Bulk    BulkConfig    `mapstructure:"bulk"`
	DB      DBConfig      `mapstructure:"db"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type EdgarConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	BaseURL   string        `mapstructure:"base_url"`
	WWWURL    string        `mapstructure:"www_url"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per second
	Timeout   time.Duration `mapstructure:"timeout"`
}

type HistoryConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// BulkConfig locates the nightly bulk archives.
type BulkConfig struct {
	SubmissionsURL  string `mapstructure:"submissions_url"`
	CompanyFactsURL string `mapstructure:"companyfacts_url"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load reads the configuration. An explicit path must exist; otherwise
// config.yaml is looked up in the working directory and then
// ~/.edgar-xbrl, and may be absent.
//
// Environment variables override file values, e.g. EDGAR_EDGAR_USER_AGENT
// or EDGAR_SERVER_PORT.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".edgar-xbrl"))
		}
	}

	v.SetEnvPrefix("EDGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("edgar.user_agent", "")
	v.SetDefault("edgar.base_url", "https://data.sec.gov")
	v.SetDefault("edgar.www_url", "https://www.sec.gov")
	v.SetDefault("edgar.rate_limit", 10)
	v.SetDefault("edgar.timeout", 30*time.Second)

	v.SetDefault("history.concurrency", 4)

	v.SetDefault("bulk.submissions_url", "https://www.sec.gov/Archives/edgar/daily-index/bulkdata/submissions.zip")
	v.SetDefault("bulk.companyfacts_url", "https://www.sec.gov/Archives/edgar/daily-index/xbrl/companyfacts.zip")

	v.SetDefault("db.path", "edgar.db")

	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks settings every command that talks to the SEC needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Edgar.UserAgent) == "" {
		return ErrMissingUserAgent
	}
	if c.Edgar.RateLimit <= 0 {
		return fmt.Errorf("edgar.rate_limit must be positive, got %d", c.Edgar.RateLimit)
	}
	if c.History.Concurrency <= 0 {
		return fmt.Errorf("history.concurrency must be positive, got %d", c.History.Concurrency)
	}
	return nil
}
