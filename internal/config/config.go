package config

import (
	"fmt"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/compression"
	"github.com/packscale/packscale/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Store    StoreConfig    `mapstructure:"store"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes
}

// EngineConfig controls report calendar rules and prediction/threshold defaults
type EngineConfig struct {
	Timezone               string  `mapstructure:"timezone"`   // "America/Sao_Paulo", "-03:00", "UTC"
	WeekStart              string  `mapstructure:"week_start"` // sunday (pt-BR) or monday (ISO)
	MinPredictionSamples   int     `mapstructure:"min_prediction_samples"`
	DefaultUserMassKg      float64 `mapstructure:"default_user_mass_kg"`
	DefaultOverloadPercent float64 `mapstructure:"default_overload_percent"`
}

// StoreConfig represents the in-memory measurement store configuration
type StoreConfig struct {
	SnapshotPath        string        `mapstructure:"snapshot_path"` // Empty disables snapshots
	SnapshotCompression string        `mapstructure:"snapshot_compression"` // snappy or none
	SnapshotInterval    time.Duration `mapstructure:"snapshot_interval"`    // 0 saves only on shutdown
	Retention           time.Duration `mapstructure:"retention"`
	CleanupInterval     time.Duration `mapstructure:"cleanup_interval"`
	MaxMeasurements     int           `mapstructure:"max_measurements"` // Per backpack, oldest evicted first
}

// ProfilesConfig selects where backpack user profiles live
type ProfilesConfig struct {
	Backend string     `mapstructure:"backend"` // memory (default) or etcd
	Etcd    EtcdConfig `mapstructure:"etcd"`
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Prefix      string        `mapstructure:"prefix"`
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"` // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`  // nats://localhost:4222, redis://localhost:6379
	Password string `mapstructure:"password"`

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`
	RedisStream   string `mapstructure:"redis_stream"`   // Stream key prefix
	RedisGroup    string `mapstructure:"redis_group"`    // Consumer group
	RedisConsumer string `mapstructure:"redis_consumer"` // Consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroupID string   `mapstructure:"kafka_group_id"`
}

// IngestConfig controls the queue subscription that feeds the store
type IngestConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Subject string `mapstructure:"subject"`
}

// AlertsConfig controls overload and imbalance event publishing
type AlertsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Subject string `mapstructure:"subject"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	if err := c.Profiles.Validate(); err != nil {
		return fmt.Errorf("profiles config: %w", err)
	}
	if c.Ingest.Enabled || c.Alerts.Enabled {
		if err := c.Queue.Validate(); err != nil {
			return fmt.Errorf("queue config: %w", err)
		}
	}
	if c.Ingest.Enabled && c.Ingest.Subject == "" {
		return fmt.Errorf("ingest config: subject is required")
	}
	if c.Alerts.Enabled && c.Alerts.Subject == "" {
		return fmt.Errorf("alerts config: subject is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}
	return nil
}

// Validate validates engine configuration
func (c *EngineConfig) Validate() error {
	if _, err := ParseTimezone(c.Timezone); err != nil {
		return err
	}
	if _, err := aggregation.ParseWeekStart(c.WeekStart); err != nil {
		return err
	}
	if c.MinPredictionSamples < 1 {
		return fmt.Errorf("min_prediction_samples must be at least 1")
	}
	if c.DefaultUserMassKg <= 0 {
		return fmt.Errorf("default_user_mass_kg must be positive")
	}
	if c.DefaultOverloadPercent <= 0 || c.DefaultOverloadPercent > 100 {
		return fmt.Errorf("default_overload_percent must be in (0, 100]")
	}
	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	if c.Retention < 0 {
		return fmt.Errorf("retention cannot be negative")
	}
	if c.Retention > 0 && c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive when retention is set")
	}
	if c.MaxMeasurements < 0 {
		return fmt.Errorf("max_measurements cannot be negative")
	}
	if c.SnapshotInterval < 0 {
		return fmt.Errorf("snapshot_interval cannot be negative")
	}
	if _, err := compression.ParseAlgorithm(c.SnapshotCompression); err != nil {
		return err
	}
	return nil
}

// Validate validates profile backend configuration
func (c *ProfilesConfig) Validate() error {
	switch c.Backend {
	case "", "memory":
		return nil
	case "etcd":
		return c.Etcd.Validate()
	default:
		return fmt.Errorf("backend must be 'memory' or 'etcd', got %q", c.Backend)
	}
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch utils.QueueType(c.Type) {
	case "", utils.QueueTypeNATS, utils.QueueTypeRedis:
		if c.URL == "" {
			return fmt.Errorf("queue.url is required")
		}
	case utils.QueueTypeKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required")
		}
	case utils.QueueTypeMemory:
	default:
		return fmt.Errorf("unsupported queue type: %s", c.Type)
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}
