package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CODEGEN_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_PROVIDER", "none")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "s3cret", cfg.Codegen.Secret)
	assert.Equal(t, 7, cfg.Codegen.Length)
	assert.Equal(t, 5, cfg.Codegen.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "none", cfg.Cache.Provider)
	assert.Equal(t, 5*time.Second, cfg.Validator.Timeout)
	assert.True(t, cfg.Validator.CheckReachability)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_DRIVER", "mongo")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "database.driver")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(`
server:
  base_url: https://sho.rt
codegen:
  length: 9
cache:
  provider: redis
  ttl: 30s
`), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://sho.rt", cfg.Server.BaseURL)
	assert.Equal(t, 9, cfg.Codegen.Length)
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		var c Config
		c.Database.Driver = "sqlite"
		c.Cache.Provider = "none"
		c.Analytics.WorkerCount = 1
		return &c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"postgres", func(c *Config) { c.Database.Driver = "postgres" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, true},
		{"unknown cache", func(c *Config) { c.Cache.Provider = "memcached" }, true},
		{"no workers", func(c *Config) { c.Analytics.WorkerCount = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
