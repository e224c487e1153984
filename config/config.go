// Package config loads service settings from defaults, an optional YAML file and TASKMGR_
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TASKMGR_HTTP_PORT.
const EnvPrefix = "TASKMGR"

// DefaultFileName is the config file looked up in the working directory when no path is given.
const DefaultFileName = "taskmgr"

// Config is the full service configuration.
type Config struct {
	HTTP            HTTPConfig
	Database        DatabaseConfig
	JWT             JWTConfig
	Redis           RedisConfig
	StatsCache      StatsCacheConfig
	Notifications   NotificationsConfig
	Log             LogConfig
	SeedFile        string
	ShutdownTimeout time.Duration
}

type HTTPConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path  string
	Debug bool
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RedisConfig points at the Redis server backing the stats cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
}

type StatsCacheConfig struct {
	TTL    time.Duration
	Prefix string
}

type NotificationsConfig struct {
	InboxSize int
}

type LogConfig struct {
	// SlowServiceThreshold is how long an inter-module call may take before it is logged as slow.
	SlowServiceThreshold time.Duration
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 3000)
	v.SetDefault("database.path", "taskmgr.db")
	v.SetDefault("database.debug", false)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "taskmgr")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("stats_cache.ttl", time.Minute)
	v.SetDefault("stats_cache.prefix", "taskmgr:stats:")
	v.SetDefault("notifications.inbox_size", 100)
	v.SetDefault("log.slow_service_threshold", 500*time.Millisecond)
	v.SetDefault("seed.file", "")
	v.SetDefault("shutdown_timeout", 30*time.Second)
}

// Load reads the configuration. With an empty path it looks for taskmgr.yaml in the working
// directory and falls back to defaults when there is none; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port: v.GetInt("http.port"),
		},
		Database: DatabaseConfig{
			Path:  v.GetString("database.path"),
			Debug: v.GetBool("database.debug"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Issuer:     v.GetString("jwt.issuer"),
			AccessTTL:  v.GetDuration("jwt.access_ttl"),
			RefreshTTL: v.GetDuration("jwt.refresh_ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
		},
		StatsCache: StatsCacheConfig{
			TTL:    v.GetDuration("stats_cache.ttl"),
			Prefix: v.GetString("stats_cache.prefix"),
		},
		Notifications: NotificationsConfig{
			InboxSize: v.GetInt("notifications.inbox_size"),
		},
		Log: LogConfig{
			SlowServiceThreshold: v.GetDuration("log.slow_service_threshold"),
		},
		SeedFile:        v.GetString("seed.file"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("jwt.access_ttl and jwt.refresh_ttl must be positive")
	}
	if c.StatsCache.TTL <= 0 {
		return fmt.Errorf("stats_cache.ttl must be positive, got %s", c.StatsCache.TTL)
	}
	if c.Notifications.InboxSize < 1 {
		return fmt.Errorf("notifications.inbox_size must be at least 1, got %d", c.Notifications.InboxSize)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
