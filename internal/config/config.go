package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration, populated from
// STORM_-prefixed environment variables with sensible local defaults.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Verification VerificationConfig `mapstructure:"verification"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig configures the PostgreSQL connection
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// VerificationConfig configures the verification batch runner. The batch
// limit and run interval are the only knobs: the ±2h window and 25-mile
// radius are fixed constants so verification semantics stay stable.
type VerificationConfig struct {
	BatchLimit int           `mapstructure:"batch_limit"`
	Interval   time.Duration `mapstructure:"interval"`
}

// KafkaConfig configures the optional verification-event publisher
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from the environment, applying defaults
// where unset
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "storm")
	v.SetDefault("database.password", "storm")
	v.SetDefault("database.database", "storm_platform")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	v.SetDefault("verification.batch_limit", 100)
	v.SetDefault("verification.interval", "30m")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "verification-events")

	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("STORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Verification.BatchLimit <= 0 {
		return fmt.Errorf("verification batch limit must be positive, got %d", c.Verification.BatchLimit)
	}

	if c.Verification.Interval <= 0 {
		return fmt.Errorf("verification interval must be positive, got %s", c.Verification.Interval)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka is enabled but no brokers are configured")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka is enabled but no topic is configured")
		}
	}

	return nil
}
