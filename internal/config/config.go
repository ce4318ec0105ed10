// Package config provides snowbird configuration loaded from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds snowbird configuration.
type Config struct {
	// COMMS: NATS transport and invocation events. Off unless COMMS_ENABLED is set.
	COMMSEnabled bool   `envconfig:"COMMS_ENABLED" default:"false"`
	COMMSURL     string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName    string `envconfig:"SERVICE_NAME" default:"snowbird"`

	// Subjects (empty = commsutil defaults)
	DispatchSubject string `envconfig:"DISPATCH_SUBJECT"`
	EventSubject    string `envconfig:"EVENT_SUBJECT"`
	InvokedSubject  string `envconfig:"INVOKED_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`

	// Resource manifest
	ManifestFile string `envconfig:"SNOWBIRD_MANIFEST_FILE"`

	// Database
	DatabaseURL   string `envconfig:"DATABASE_URL" default:"sqlite://sample_db.sqlite"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	MigrationPath string `envconfig:"MIGRATION_PATH"`

	// HTTP (HTTP_ADDR preferred, e.g. "0.0.0.0:5000")
	HTTPAddr string `envconfig:"HTTP_ADDR"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"5000"`

	// Blob storage
	CloudProvider string `envconfig:"CLOUD_SERVICE_PROVIDER" default:"aws"`
	BlobLocalRoot string `envconfig:"BLOB_LOCAL_ROOT" default:"data"`
	S3Enabled     bool   `envconfig:"S3_ENABLED" default:"true"`
	S3Region      string `envconfig:"S3_REGION" default:"us-east-1"`
	GCSEnabled    bool   `envconfig:"GCS_ENABLED" default:"false"`

	// whatsmybill
	BillWebhook string `envconfig:"WHATS_MY_BILL_WEBHOOK"`

	// Logging and tracing
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	TraceStdout bool   `envconfig:"TRACE_STDOUT" default:"false"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Level maps LOG_LEVEL onto a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateForServe checks required config when running the server.
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForDB(); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HTTPAddr == "" && (c.HTTPPort <= 0 || c.HTTPPort > 65535) {
		return fmt.Errorf("%s - HTTP_PORT %d is out of range", logPrefix, c.HTTPPort)
	}
	if c.COMMSEnabled && c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required when COMMS_ENABLED is set", logPrefix)
	}
	switch c.CloudProvider {
	case "aws", "gcp", "local":
	default:
		return fmt.Errorf("%s - CLOUD_SERVICE_PROVIDER must be aws, gcp or local, got %q", logPrefix, c.CloudProvider)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
