package main

import (
	"context"
	"strings"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/repositories/resolutionrun"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type commandContext struct {
	envFileFlag *string
	profileFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     ectologger.Logger
	configErr  error
}

func newCommandContext(envFileFlag, profileFlag *string) *commandContext {
	return &commandContext{
		envFileFlag: envFileFlag,
		profileFlag: profileFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var envFiles []string
		if c.envFileFlag != nil && strings.TrimSpace(*c.envFileFlag) != "" {
			envFiles = append(envFiles, strings.TrimSpace(*c.envFileFlag))
		}
		cfg, err := config.Load(envFiles...)
		if err != nil {
			c.configErr = err
			return
		}
		if c.profileFlag != nil && strings.TrimSpace(*c.profileFlag) != "" {
			cfg.MatchProfilePath = strings.TrimSpace(*c.profileFlag)
		}
		logger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) matchProfile() (config.Matching, error) {
	return config.LoadMatching(c.config.MatchProfilePath)
}

// startTracing installs the configured tracer. The returned func flushes pending spans.
func (c *commandContext) startTracing(ctx context.Context) (func(), error) {
	if !c.config.TracingEnabled {
		return func() {}, nil
	}
	provider, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
		ServiceName: c.config.AppName,
		Exporter:    c.config.TracingExporter,
		Endpoint:    c.config.TracingEndpoint,
		Insecure:    c.config.TracingInsecure,
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			c.logger.WithError(err).Warn("Failed to flush traces")
		}
	}, nil
}

// openStore connects to the run store and applies migrations when enabled.
func (c *commandContext) openStore(ctx context.Context) (*database.DatabaseInstance, *resolutionrun.Repository, error) {
	db, err := database.Open(ctx, database.Config{
		Driver:          c.config.DatabaseDriver,
		DSN:             c.config.DatabaseDSN,
		MaxOpenConns:    c.config.DatabaseMaxOpenConns,
		MaxIdleConns:    c.config.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.config.DatabaseConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return nil, nil, err
	}
	if c.config.DatabaseAutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return db, resolutionrun.NewRepository(db, c.logger), nil
}

func (c *commandContext) openEmitter() (*kafka.Producer, *events.Emitter) {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      c.config.KafkaBrokers,
		Topic:        c.config.KafkaTopic,
		BatchSize:    c.config.KafkaBatchSize,
		BatchTimeout: c.config.KafkaBatchTimeout,
		RequiredAcks: c.config.KafkaRequiredAcks,
		Compression:  c.config.KafkaCompression,
	}, c.logger)
	return producer, events.NewEmitter(producer, c.logger)
}
