// Package config loads process settings and the match profile.
package config

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Ramsey-B/fern/pkg/errors"
)

type Config struct {
	AppName                string
	Port                   int
	LogLevel               string
	PrettyLogs             bool
	HttpServerReadTimeout  time.Duration
	HttpServerWriteTimeout time.Duration
	HttpServerIdleTimeout  time.Duration
	MaxHeaderBytes         int
	AllowOrigins           []string
	MaxRequestRecords      int

	// Run store
	DatabaseEnabled         bool
	DatabaseDriver          string
	DatabaseDSN             string
	DatabaseMaxOpenConns    int
	DatabaseMaxIdleConns    int
	DatabaseConnMaxLifetime time.Duration
	DatabaseAutoMigrate     bool

	// Kafka producer for resolution events
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaBatchSize    int
	KafkaBatchTimeout time.Duration
	KafkaRequiredAcks int
	KafkaCompression  string

	TracingEnabled  bool
	TracingExporter string
	TracingEndpoint string
	TracingInsecure bool

	// Resolution
	MatchProfilePath string
	Workers          int
}

var defaults = map[string]any{
	"app_name":                     "fern",
	"port":                         3010,
	"log_level":                    "info",
	"pretty_logs":                  false,
	"http_server_read_timeout":     "10s",
	"http_server_write_timeout":    "30s",
	"http_server_idle_timeout":     "10s",
	"http_server_max_header_bytes": 64000,
	"http_server_allow_origins":    []string{"*"},
	"max_request_records":          50000,

	"db_enabled":           false,
	"db_driver":            "sqlite",
	"db_dsn":               "file:fern.db?_pragma=foreign_keys(1)",
	"db_max_open_conns":    10,
	"db_max_idle_conns":    5,
	"db_conn_max_lifetime": "10m",
	"db_auto_migrate":      true,

	"kafka_enabled":       false,
	"kafka_brokers":       []string{"localhost:9092"},
	"kafka_topic":         "resolution-events",
	"kafka_batch_size":    100,
	"kafka_batch_timeout": "100ms",
	"kafka_required_acks": 1,
	"kafka_compression":   "snappy",

	"tracing_enabled":  false,
	"tracing_exporter": "stdout",
	"tracing_endpoint": "localhost:4317",
	"tracing_insecure": true,

	"match_profile": "",
	"workers":       1,
}

// Load reads settings from the environment (FERN_ prefix) after loading envFiles, or ".env" when
// none are given. Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewIOError("load env", file, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("FERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		AppName:                v.GetString("app_name"),
		Port:                   v.GetInt("port"),
		LogLevel:               v.GetString("log_level"),
		PrettyLogs:             v.GetBool("pretty_logs"),
		HttpServerReadTimeout:  v.GetDuration("http_server_read_timeout"),
		HttpServerWriteTimeout: v.GetDuration("http_server_write_timeout"),
		HttpServerIdleTimeout:  v.GetDuration("http_server_idle_timeout"),
		MaxHeaderBytes:         v.GetInt("http_server_max_header_bytes"),
		AllowOrigins:           v.GetStringSlice("http_server_allow_origins"),
		MaxRequestRecords:      v.GetInt("max_request_records"),

		DatabaseEnabled:         v.GetBool("db_enabled"),
		DatabaseDriver:          v.GetString("db_driver"),
		DatabaseDSN:             v.GetString("db_dsn"),
		DatabaseMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DatabaseMaxIdleConns:    v.GetInt("db_max_idle_conns"),
		DatabaseConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		DatabaseAutoMigrate:     v.GetBool("db_auto_migrate"),

		KafkaEnabled:      v.GetBool("kafka_enabled"),
		KafkaBrokers:      v.GetStringSlice("kafka_brokers"),
		KafkaTopic:        v.GetString("kafka_topic"),
		KafkaBatchSize:    v.GetInt("kafka_batch_size"),
		KafkaBatchTimeout: v.GetDuration("kafka_batch_timeout"),
		KafkaRequiredAcks: v.GetInt("kafka_required_acks"),
		KafkaCompression:  v.GetString("kafka_compression"),

		TracingEnabled:  v.GetBool("tracing_enabled"),
		TracingExporter: v.GetString("tracing_exporter"),
		TracingEndpoint: v.GetString("tracing_endpoint"),
		TracingInsecure: v.GetBool("tracing_insecure"),

		MatchProfilePath: v.GetString("match_profile"),
		Workers:          v.GetInt("workers"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return errors.NewConfigurationErrorf("db_driver", "unsupported driver %q (use 'sqlite' or 'postgres')", c.DatabaseDriver)
	}
	switch c.KafkaCompression {
	case "", "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return errors.NewConfigurationErrorf("kafka_compression", "unsupported codec %q", c.KafkaCompression)
	}
	if c.Workers < 1 {
		return errors.NewConfigurationError("workers", "must be at least 1")
	}
	if c.Port <= 0 {
		return errors.NewConfigurationError("port", "must be positive")
	}
	return nil
}
