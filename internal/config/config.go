package config

import (
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port          int    `envconfig:"PORT" default:"8080"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	Version       string `envconfig:"VERSION" default:"dev"`
	BcryptCost    int    `envconfig:"BCRYPT_COST" default:"12"`
	DefaultTenant string `envconfig:"DEFAULT_TENANT" default:"root"`
	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"en-US"`
	AutoMigrate   bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	S3 S3Config `envconfig:"S3"`

	UploadPresignExpiry time.Duration `envconfig:"UPLOAD_PRESIGN_EXPIRY" default:"60s"`
}

// S3Config configures the upload bucket. An empty Bucket disables uploads.
type S3Config struct {
	Bucket    string `envconfig:"BUCKET" default:""`
	Region    string `envconfig:"REGION" default:"us-east-1"`
	Endpoint  string `envconfig:"ENDPOINT" default:""`
	AccessKey string `envconfig:"ACCESS_KEY" default:""`
	SecretKey string `envconfig:"SECRET_KEY" default:""`
	PathStyle bool   `envconfig:"PATH_STYLE" default:"false"`
}

// Enabled reports whether an upload bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
