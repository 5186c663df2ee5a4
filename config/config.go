package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data sources the server can read the colleges table from.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds the application settings read from .env and the environment.
type Config struct {
	CSVPath        string `mapstructure:"COLLEGES_CSV"`
	Source         string `mapstructure:"DATA_SOURCE"`
	ListenAddr     string `mapstructure:"LISTEN_ADDR"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`
	Table          string `mapstructure:"COLLEGES_TABLE"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
}

var defaults = map[string]interface{}{
	"COLLEGES_CSV":    "colleges.csv",
	"DATA_SOURCE":     SourceCSV,
	"LISTEN_ADDR":     ":5000",
	"LOG_LEVEL":       "info",
	"LOG_DEVELOPMENT": false,
	"COLLEGES_TABLE":  "colleges",
	"DB_HOST":         "localhost",
	"DB_PORT":         "5432",
	"DB_USER":         "",
	"DB_PASSWORD":     "",
	"DB_NAME":         "",
	"DB_SSLMODE":      "disable",
}

// Load reads the optional .env files, then the environment. Environment
// values win over .env values, and both over the defaults.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is fine; settings then come from the environment only.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have a closed set of options.
func (c *Config) Validate() error {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	switch c.Source {
	case SourceCSV, SourcePostgres:
	default:
		return fmt.Errorf("invalid DATA_SOURCE %q: want %s or %s", c.Source, SourceCSV, SourcePostgres)
	}
	if c.Source == SourcePostgres && c.DBName == "" {
		return fmt.Errorf("DB_NAME is required when DATA_SOURCE=%s", SourcePostgres)
	}
	return nil
}

// PostgresDSN builds the lib/pq connection string from the DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
