package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/packscale/packscale/internal/utils"
)

// EnvPrefix prefixes environment overrides, e.g. PACKSCALE_SERVER_HTTP_PORT
const EnvPrefix = "PACKSCALE"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/packscale")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	v.SetDefault("engine.timezone", d.Engine.Timezone)
	v.SetDefault("engine.week_start", d.Engine.WeekStart)
	v.SetDefault("engine.min_prediction_samples", d.Engine.MinPredictionSamples)
	v.SetDefault("engine.default_user_mass_kg", d.Engine.DefaultUserMassKg)
	v.SetDefault("engine.default_overload_percent", d.Engine.DefaultOverloadPercent)

	v.SetDefault("store.snapshot_path", d.Store.SnapshotPath)
	v.SetDefault("store.snapshot_compression", d.Store.SnapshotCompression)
	v.SetDefault("store.snapshot_interval", d.Store.SnapshotInterval)
	v.SetDefault("store.retention", d.Store.Retention)
	v.SetDefault("store.cleanup_interval", d.Store.CleanupInterval)
	v.SetDefault("store.max_measurements", d.Store.MaxMeasurements)

	v.SetDefault("profiles.backend", d.Profiles.Backend)
	v.SetDefault("profiles.etcd.endpoints", d.Profiles.Etcd.Endpoints)
	v.SetDefault("profiles.etcd.dial_timeout", d.Profiles.Etcd.DialTimeout)
	v.SetDefault("profiles.etcd.prefix", d.Profiles.Etcd.Prefix)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("ingest.enabled", d.Ingest.Enabled)
	v.SetDefault("ingest.subject", d.Ingest.Subject)
	v.SetDefault("alerts.enabled", d.Alerts.Enabled)
	v.SetDefault("alerts.subject", d.Alerts.Subject)

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			ReadTimeout:  utils.DefaultRequestTimeout,
			WriteTimeout: utils.DefaultRequestTimeout,
			BodyLimit:    8 * 1024 * 1024,
		},
		Engine: EngineConfig{
			Timezone:               "UTC",
			WeekStart:              "sunday",
			MinPredictionSamples:   utils.DefaultMinPredictionSamples,
			DefaultUserMassKg:      utils.DefaultUserMassKg,
			DefaultOverloadPercent: utils.DefaultOverloadPercent,
		},
		Store: StoreConfig{
			SnapshotCompression: "snappy",
			SnapshotInterval:    5 * time.Minute,
			Retention:           utils.DefaultRetention,
			CleanupInterval:     utils.DefaultCleanupInterval,
			MaxMeasurements:     500000,
		},
		Profiles: ProfilesConfig{
			Backend: "memory",
			Etcd: EtcdConfig{
				Endpoints:   []string{"http://localhost:2379"},
				DialTimeout: 5 * time.Second,
				Prefix:      "/packscale/profiles/",
			},
		},
		Queue: QueueConfig{
			Type:         string(utils.QueueTypeNATS),
			URL:          "nats://localhost:4222",
			RedisStream:  "packscale",
			RedisGroup:   "packscale-group",
			KafkaGroupID: "packscale-group",
		},
		Ingest: IngestConfig{
			Enabled: false,
			Subject: "packscale.measurements",
		},
		Alerts: AlertsConfig{
			Enabled: false,
			Subject: "packscale.alerts",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
