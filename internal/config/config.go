package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML keys to Go struct fields.
type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		BaseURL         string        `mapstructure:"base_url"` // Deployment origin used to build short URLs
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Database DatabaseConfig `mapstructure:"database"`

	// Codegen holds the keyed transform secret and the public code shape.
	Codegen struct {
		Secret      string `mapstructure:"secret"`
		Length      int    `mapstructure:"length"`
		MaxAttempts int    `mapstructure:"max_attempts"`
	} `mapstructure:"codegen"`

	// Analytics configures the asynchronous click recorder.
	Analytics struct {
		BufferSize  int           `mapstructure:"buffer_size"`
		WorkerCount int           `mapstructure:"worker_count"`
		MaxOverflow int           `mapstructure:"max_overflow"` // Deferred events held while the buffer is full
		MaxRetries  int           `mapstructure:"max_retries"`
		RetryDelay  time.Duration `mapstructure:"retry_delay"`
		Sync        bool          `mapstructure:"sync"` // Record inline when background work is not allowed
	} `mapstructure:"analytics"`

	Validator struct {
		CheckReachability bool          `mapstructure:"check_reachability"`
		Timeout           time.Duration `mapstructure:"timeout"`
	} `mapstructure:"validator"`

	Cache CacheConfig `mapstructure:"cache"`

	Auth struct {
		JWTSecret      string `mapstructure:"jwt_secret"`
		AllowAnonymous bool   `mapstructure:"allow_anonymous"`
	} `mapstructure:"auth"`

	Monitor struct {
		Enabled  bool   `mapstructure:"enabled"`
		Schedule string `mapstructure:"schedule"` // cron expression
	} `mapstructure:"monitor"`

	Reconcile struct {
		Enabled  bool   `mapstructure:"enabled"`
		Schedule string `mapstructure:"schedule"`
	} `mapstructure:"reconcile"`

	Log LogConfig `mapstructure:"log"`
}

// DatabaseConfig selects the gorm dialector and tunes the connection pool.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres or mysql
	Name            string        `mapstructure:"name"`   // SQLite database file name
	DSN             string        `mapstructure:"dsn"`    // postgres / mysql DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig configures the resolve cache.
type CacheConfig struct {
	Provider string        `mapstructure:"provider"` // none, memory or redis
	Size     int           `mapstructure:"size"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"`
}

// LogConfig configures zap and the lumberjack file rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults registers a default for every key so environment overrides work
// even when no config file exists.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.name", "url_shortener.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("codegen.secret", "")
	v.SetDefault("codegen.length", 7)
	v.SetDefault("codegen.max_attempts", 5)

	v.SetDefault("analytics.buffer_size", 1000)
	v.SetDefault("analytics.worker_count", 5)
	v.SetDefault("analytics.max_overflow", 1000)
	v.SetDefault("analytics.max_retries", 3)
	v.SetDefault("analytics.retry_delay", 50*time.Millisecond)
	v.SetDefault("analytics.sync", false)

	v.SetDefault("validator.check_reachability", true)
	v.SetDefault("validator.timeout", 5*time.Second)

	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.size", 10000)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.allow_anonymous", false)

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.schedule", "*/5 * * * *")

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.schedule", "0 * * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/linkforge.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", false)
}

// LoadConfig loads the application configuration using Viper.
// An optional .env file is loaded first so its values reach AutomaticEnv.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	// "server.port" becomes "SERVER_PORT"
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown drivers and providers. The codegen secret is
// checked when the generator is built, so commands that never create codes
// can run without it.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Cache.Provider {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache.provider %q", c.Cache.Provider)
	}
	if c.Analytics.WorkerCount < 1 {
		return fmt.Errorf("analytics.worker_count must be at least 1")
	}
	return nil
}
