package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 1<<20, cfg.MaxTextBytes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage_driver: memory
http_port: 9000
max_text_bytes: 2048
log_level: debug
browser_enabled: false
`), 0600))

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 9100, cfg.HTTPPort, "env overrides the file")
	assert.Equal(t, 2048, cfg.MaxTextBytes)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.BrowserEnabled)
	assert.Equal(t, "db.internal", cfg.PostgresHost)
	assert.Equal(t, "5432", cfg.PostgresPort, "untouched keys keep defaults")
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage_driver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.HTTPPort = 0 }, "http_port"},
		{"port too large", func(c *Config) { c.HTTPPort = 70000 }, "http_port"},
		{"text limit", func(c *Config) { c.MaxTextBytes = 0 }, "max_text_bytes"},
		{"concurrency", func(c *Config) { c.MaxConcurrency = 0 }, "max_concurrency"},
		{"retries", func(c *Config) { c.MaxRetries = 0 }, "max_retries"},
		{"browser timeout", func(c *Config) { c.BrowserTimeoutSec = 0 }, "browser_timeout_sec"},
		{"browser timeout ignored when disabled", func(c *Config) {
			c.BrowserEnabled = false
			c.BrowserTimeoutSec = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Default()
	assert.Equal(t,
		"host=localhost port=5432 user=parser password=parser123 dbname=listings_db sslmode=disable",
		cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@db:5432/x?sslmode=require"
	assert.Equal(t, cfg.DatabaseURL, cfg.DSN())
}

func TestHTTPAddr(t *testing.T) {
	cfg := Default()
	cfg.HTTPHost = "127.0.0.1"
	cfg.HTTPPort = 5000
	assert.Equal(t, "127.0.0.1:5000", cfg.HTTPAddr())
}
