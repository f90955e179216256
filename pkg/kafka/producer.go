// Package kafka publishes resolution events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// MessageWriter is the part of kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles Kafka event emission
type Producer struct {
	writer  MessageWriter
	logger  ectologger.Logger
	topic   string
	brokers []string
	// metrics label; the writer's topic when topic is empty
	label string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compressionCodec(cfg.Compression),
		AllowAutoTopicCreation: true,
	}
	p := NewProducerWithWriter(writer, "", logger)
	p.brokers = cfg.Brokers
	p.label = cfg.Topic
	return p
}

// NewProducerWithWriter creates a producer on top of an existing writer. An empty topic
// leaves the topic to the writer.
func NewProducerWithWriter(writer MessageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		topic:  topic,
		label:  topic,
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none":
		return 0
	default:
		return kafka.Snappy
	}
}

// PingContext dials the first reachable broker. A producer built on a custom writer has no
// brokers and always succeeds.
func (p *Producer) PingContext(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	if lastErr != nil {
		return fmt.Errorf("no kafka broker reachable: %w", lastErr)
	}
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Event is a resolution lifecycle event
type Event struct {
	EventType     string          `json:"event_type"` // resolution.completed, record.resolved
	RunID         string          `json:"run_id"`
	Key           string          `json:"key"`
	Data          json.RawMessage `json:"data,omitempty"`
	SchemaVersion string          `json:"schema_version"`
	Timestamp     time.Time       `json:"timestamp"`
}

// PublishEvent publishes a single event
func (p *Producer) PublishEvent(ctx context.Context, event *Event) error {
	return p.PublishEvents(ctx, []*Event{event})
}

// PublishEvents publishes events in one batch, preserving their order
func (p *Producer) PublishEvents(ctx context.Context, events []*Event) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := p.message(ctx, event)
		if err != nil {
			return err
		}
		messages[i] = msg
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		metrics.RecordKafkaPublish(p.label, metrics.StatusFailed, len(messages), time.Since(start).Seconds())
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish events batch")
		return err
	}
	metrics.RecordKafkaPublish(p.label, metrics.StatusSuccess, len(messages), time.Since(start).Seconds())

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published events batch")

	return nil
}

func (p *Producer) message(ctx context.Context, event *Event) (kafka.Message, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SchemaVersion == "" {
		event.SchemaVersion = SchemaVersion
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	carrier := headerCarrier{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "run_id", Value: []byte(event.RunID)},
		{Key: "schema_version", Value: []byte(event.SchemaVersion)},
	}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	return kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.Key),
		Value:   data,
		Headers: carrier,
	}, nil
}
