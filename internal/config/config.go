// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Congress CongressConfig `mapstructure:"congress"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CongressConfig points at the upstream document API.
type CongressConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// IngestConfig carries the job parameters.
type IngestConfig struct {
	Congress         int    `mapstructure:"congress"`
	BillType         string `mapstructure:"bill_type"`
	Limit            int    `mapstructure:"limit"`
	Workers          int    `mapstructure:"workers"`
	RenderIntervalMs int    `mapstructure:"render_interval_ms"`
	// Renderer selects the progress front end: "ansi" or "log".
	Renderer string `mapstructure:"renderer"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BackoffStepMs  int    `mapstructure:"backoff_step_ms"`
	UserAgent      string `mapstructure:"user_agent"`
}

// DatabaseConfig controls access to the bill text store.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// StorageConfig selects and parameterizes the raw-rendition archive.
type StorageConfig struct {
	// Backend is "none", "local", "memory", or "gcs".
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// PubSubConfig holds metadata for ingest notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the operator HTTP surface.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLTEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("congress.base_url", "https://api.congress.gov")
	v.SetDefault("ingest.congress", 118)
	v.SetDefault("ingest.bill_type", "hr")
	v.SetDefault("ingest.limit", 50)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.render_interval_ms", 1000)
	v.SetDefault("ingest.renderer", "ansi")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_step_ms", 2000)
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.table", "bills")
	v.SetDefault("storage.backend", "none")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values. Missing credentials here are the
// only errors fatal to the process.
func (c Config) Validate() error {
	if c.Congress.APIKey == "" {
		return fmt.Errorf("congress.api_key is required")
	}
	if c.Ingest.Limit <= 0 {
		return fmt.Errorf("ingest.limit must be > 0")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be > 0")
	}
	switch c.Ingest.Renderer {
	case "ansi", "log":
	default:
		return fmt.Errorf("ingest.renderer must be \"ansi\" or \"log\"")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when the database is enabled")
	}
	switch c.Storage.Backend {
	case "none", "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for the local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name are required when pubsub is enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffStep converts the backoff step into a duration.
func (c Config) BackoffStep() time.Duration {
	return time.Duration(c.HTTP.BackoffStepMs) * time.Millisecond
}

// RenderInterval converts the render cadence into a duration.
func (c Config) RenderInterval() time.Duration {
	return time.Duration(c.Ingest.RenderIntervalMs) * time.Millisecond
}
