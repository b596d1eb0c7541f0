// Package config provides configuration management for the Openshelf server.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds TCP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// ShutdownTimeout bounds how long shutdown waits for in-flight
	// sessions before detaching them. Sessions are never force-cancelled.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// AdminPassword is the administrator credential. It is an explicit
	// configuration value passed into the catalogue; there is no
	// process-wide default in code.
	AdminPassword string `mapstructure:"admin_password"`
}

// PersistenceConfig holds snapshot persistence settings.
type PersistenceConfig struct {
	// Backend selects the snapshot store: "json", "sqlite", "postgres" or "s3".
	Backend string `mapstructure:"backend"`

	// Path is the snapshot file location for the json backend.
	Path string `mapstructure:"path"`

	// SaveRetries is how many times a failed save is attempted before
	// giving up (the process logs and carries on; it never crashes).
	SaveRetries int `mapstructure:"save_retries"`

	// AutosaveEnabled turns the periodic background save on.
	AutosaveEnabled bool `mapstructure:"autosave_enabled"`

	// AutosaveInterval is how often the background save runs.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`

	// LockTTL bounds how long a snapshot write may hold the save lock.
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	S3       S3Config       `mapstructure:"s3"`
}

// SQLiteConfig holds settings for the embedded sqlite snapshot store.
type SQLiteConfig struct {
	// Path is the database file; ":memory:" is accepted for tests.
	Path        string `mapstructure:"path"`
	JournalMode string `mapstructure:"journal_mode"`
	BusyTimeout int    `mapstructure:"busy_timeout"`
}

// PostgresConfig holds settings for the postgres snapshot store.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN returns the postgres connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// S3Config holds settings for the S3 snapshot store.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Key             string `mapstructure:"key"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// RedisConfig holds Redis connection settings for the snapshot save lock.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address in host:port form.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if the metrics HTTP endpoint is served.
	Enabled bool `mapstructure:"enabled"`

	// Port is the port for the metrics HTTP server.
	Port int `mapstructure:"port"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values and are prefixed
// with OPENSHELF_, using _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("OPENSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/openshelf")
	}

	// The config file is optional; env vars and defaults can carry it.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Auth defaults
	v.SetDefault("auth.admin_password", "admin")

	// Persistence defaults
	v.SetDefault("persistence.backend", "json")
	v.SetDefault("persistence.path", "./data/database.json")
	v.SetDefault("persistence.save_retries", 3)
	v.SetDefault("persistence.autosave_enabled", true)
	v.SetDefault("persistence.autosave_interval", 5*time.Minute)
	v.SetDefault("persistence.lock_ttl", 30*time.Second)
	v.SetDefault("persistence.sqlite.path", "./data/catalogue.db")
	v.SetDefault("persistence.sqlite.journal_mode", "WAL")
	v.SetDefault("persistence.sqlite.busy_timeout", 5000)
	v.SetDefault("persistence.postgres.host", "localhost")
	v.SetDefault("persistence.postgres.port", 5432)
	v.SetDefault("persistence.postgres.user", "openshelf")
	v.SetDefault("persistence.postgres.password", "")
	v.SetDefault("persistence.postgres.database", "openshelf")
	v.SetDefault("persistence.postgres.ssl_mode", "prefer")
	v.SetDefault("persistence.s3.region", "us-east-1")
	v.SetDefault("persistence.s3.key", "catalogue/database.json")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("auth.admin_password is required")
	}

	validBackends := map[string]bool{"json": true, "sqlite": true, "postgres": true, "s3": true}
	if !validBackends[c.Persistence.Backend] {
		return fmt.Errorf("persistence.backend must be one of: json, sqlite, postgres, s3")
	}

	switch c.Persistence.Backend {
	case "json":
		if c.Persistence.Path == "" {
			return fmt.Errorf("persistence.path is required for json backend")
		}
	case "sqlite":
		if c.Persistence.SQLite.Path == "" {
			return fmt.Errorf("persistence.sqlite.path is required for sqlite backend")
		}
	case "postgres":
		if c.Persistence.Postgres.Host == "" {
			return fmt.Errorf("persistence.postgres.host is required for postgres backend")
		}
		if c.Persistence.Postgres.Database == "" {
			return fmt.Errorf("persistence.postgres.database is required for postgres backend")
		}
	case "s3":
		if c.Persistence.S3.Bucket == "" {
			return fmt.Errorf("persistence.s3.bucket is required for s3 backend")
		}
	}

	if c.Persistence.SaveRetries < 1 {
		return fmt.Errorf("persistence.save_retries must be at least 1")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
