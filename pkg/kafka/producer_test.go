package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func nopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestProducer_PublishEvents(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "resolution-events", nopLogger())

	events := []*Event{
		{EventType: "record.resolved", RunID: "run-1", Key: "r1", Data: json.RawMessage(`{"status":"matched"}`)},
		{EventType: "resolution.completed", RunID: "run-1", Key: "run-1"},
	}
	require.NoError(t, producer.PublishEvents(t.Context(), events))

	require.Len(t, writer.messages, 2)
	first := writer.messages[0]
	assert.Equal(t, "resolution-events", first.Topic)
	assert.Equal(t, "r1", string(first.Key))
	assert.Equal(t, "record.resolved", Header(first, "event_type"))
	assert.Equal(t, "run-1", Header(first, "run_id"))
	assert.Equal(t, SchemaVersion, Header(first, "schema_version"))

	var decoded Event
	require.NoError(t, json.Unmarshal(first.Value, &decoded))
	assert.Equal(t, "record.resolved", decoded.EventType)
	assert.False(t, decoded.Timestamp.IsZero())
	assert.JSONEq(t, `{"status":"matched"}`, string(decoded.Data))

	assert.Equal(t, "resolution.completed", Header(writer.messages[1], "event_type"))
}

func TestProducer_PublishEvents_Empty(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "", nopLogger())

	require.NoError(t, producer.PublishEvents(t.Context(), nil))
	assert.Empty(t, writer.messages)
}

func TestProducer_PublishEvent_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	producer := NewProducerWithWriter(writer, "", nopLogger())

	err := producer.PublishEvent(t.Context(), &Event{EventType: "record.resolved", Key: "r1"})
	assert.EqualError(t, err, "broker unavailable")
}

func TestProducer_InjectsTraceContext(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() {
		tracing.SetTracer(nil)
		_ = provider.Shutdown(context.Background())
	})
	tracing.SetTracer(provider.Tracer("test"))
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, span := tracing.StartSpan(t.Context(), "test")
	defer span.End()

	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "", nopLogger())
	require.NoError(t, producer.PublishEvent(ctx, &Event{EventType: "record.resolved", Key: "r1"}))

	require.Len(t, writer.messages, 1)
	require.NotEmpty(t, tracing.GetTraceID(ctx))
	assert.Contains(t, Header(writer.messages[0], "traceparent"), tracing.GetTraceID(ctx))
}

func TestProducer_Close(t *testing.T) {
	writer := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(writer, "", nopLogger()).Close())
	assert.True(t, writer.closed)
}

func TestCompressionCodec(t *testing.T) {
	tests := []struct {
		name string
		want kafka.Compression
	}{
		{"gzip", kafka.Gzip},
		{"lz4", kafka.Lz4},
		{"zstd", kafka.Zstd},
		{"snappy", kafka.Snappy},
		{"", kafka.Snappy},
		{"none", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compressionCodec(tt.name))
		})
	}
}

func TestProducer_PingContext(t *testing.T) {
	t.Run("custom writer", func(t *testing.T) {
		p := NewProducerWithWriter(&fakeWriter{}, "events", nopLogger())
		assert.NoError(t, p.PingContext(context.Background()))
	})

	t.Run("unreachable broker", func(t *testing.T) {
		p := NewProducer(ProducerConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "events"}, nopLogger())
		defer p.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := p.PingContext(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no kafka broker reachable")
	})
}
