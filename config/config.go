package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration. Keys are flat snake_case in the
// YAML file and the upper-case form in the environment (postgres_host / POSTGRES_HOST).
type Config struct {
	StorageDriver    string `koanf:"storage_driver"`
	DatabaseURL      string `koanf:"database_url"`
	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     string `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`
	PostgresSSLMode  string `koanf:"postgres_sslmode"`

	HTTPHost     string `koanf:"http_host"`
	HTTPPort     int    `koanf:"http_port"`
	MaxBodySize  string `koanf:"max_body_size"`
	MaxTextBytes int    `koanf:"max_text_bytes"`

	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`

	MaxConcurrency int `koanf:"max_concurrency"`
	RateLimitMs    int `koanf:"rate_limit_ms"`
	MaxRetries     int `koanf:"max_retries"`

	BrowserEnabled    bool   `koanf:"browser_enabled"`
	ChromeBin         string `koanf:"chrome_bin"`
	BrowserTimeoutSec int    `koanf:"browser_timeout_sec"`

	CSVOutputPath string `koanf:"csv_output_path"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		StorageDriver:    DriverPostgres,
		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "parser",
		PostgresPassword: "parser123",
		PostgresDB:       "listings_db",
		PostgresSSLMode:  "disable",

		HTTPHost:     "0.0.0.0",
		HTTPPort:     8080,
		MaxBodySize:  "2M",
		MaxTextBytes: 1 << 20,

		LogLevel: "info",

		MaxConcurrency: 3,
		RateLimitMs:    2000,
		MaxRetries:     3,

		BrowserEnabled:    true,
		BrowserTimeoutSec: 60,

		CSVOutputPath: "./output/parsed_listings.csv",
	}
}

// Load reads .env into the process environment, then layers the optional YAML
// file at path and the environment over Default(). A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// "." never appears in env names, so POSTGRES_HOST stays the flat key postgres_host.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: storage_driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StorageDriver)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: http_port out of range: %d", c.HTTPPort)
	}
	if c.MaxTextBytes < 1 {
		return fmt.Errorf("config: max_text_bytes must be positive, got %d", c.MaxTextBytes)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("config: max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config: max_retries must be positive, got %d", c.MaxRetries)
	}
	if c.BrowserEnabled && c.BrowserTimeoutSec < 1 {
		return fmt.Errorf("config: browser_timeout_sec must be positive when browser_enabled, got %d", c.BrowserTimeoutSec)
	}
	return nil
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// HTTPAddr is the listen address for the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
