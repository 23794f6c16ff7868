package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values come from an optional YAML file and the environment; the
// environment always wins. Secrets are only read from the environment.
type Config struct {
	// Database config
	DBDriver   string `yaml:"db_driver" env:"DB_DRIVER" env-default:"sqlite"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     string `yaml:"db_port" env:"DB_PORT" env-default:"5432"`
	DBUser     string `yaml:"db_user" env:"DB_USER" env-default:"postgres"`
	DBPassword string `yaml:"-" env:"DB_PASSWORD" env-default:"postgres"`
	DBName     string `yaml:"db_name" env:"DB_NAME" env-default:"minihospital"`
	DBSSLMode  string `yaml:"db_ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	DBPath     string `yaml:"db_path" env:"DB_PATH" env-default:"./database.db"` // SQLite database file path
	DBLogLevel string `yaml:"db_log_level" env:"DB_LOG_LEVEL" env-default:"warn"`

	// Auth config
	JWTSecret          string `yaml:"-" env:"JWT_SECRET" env-default:"minihospital_default_secret_key"`
	JWTExpiryHours     int    `yaml:"jwt_expiry_hours" env:"JWT_EXPIRY_HOURS" env-default:"24"`
	ReverifyTTLSeconds int    `yaml:"reverify_ttl_seconds" env:"REVERIFY_TTL_SECONDS" env-default:"300"`

	// Privacy config
	FieldEncryptionKey     string        `yaml:"-" env:"FIELD_ENCRYPTION_KEY"`
	RetentionDays          int           `yaml:"retention_days" env:"RETENTION_DAYS" env-default:"365"`
	RetentionSweepInterval time.Duration `yaml:"retention_sweep_interval" env:"RETENTION_SWEEP_INTERVAL" env-default:"0s"`

	// App config
	Port               string `yaml:"port" env:"PORT" env-default:"5000"`
	Environment        string `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	LogLevel           string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Load reads .env (if present), then path (if it exists) and the
// environment into a Config.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// PG* variables are honoured for hosted postgres environments.
	for pg, db := range map[string]string{
		"PGHOST":     "DB_HOST",
		"PGPORT":     "DB_PORT",
		"PGUSER":     "DB_USER",
		"PGPASSWORD": "DB_PASSWORD",
		"PGDATABASE": "DB_NAME",
	} {
		if v := os.Getenv(pg); v != "" && os.Getenv(db) == "" {
			os.Setenv(db, v)
		}
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg, cfg.Validate()
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported DB driver: %s", c.DBDriver)
	}
	if c.FieldEncryptionKey == "" {
		return errors.New("FIELD_ENCRYPTION_KEY must be set")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.RetentionDays)
	}
	return nil
}

// JWTExpiration returns the session token lifetime.
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// ReverifyTTL returns how long a re-verification grant stays usable.
func (c *Config) ReverifyTTL() time.Duration {
	return time.Duration(c.ReverifyTTLSeconds) * time.Second
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins splits CORSAllowedOrigins on commas. An empty list allows
// every origin.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
