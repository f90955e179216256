// Package events announces finished resolution runs to downstream consumers
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	EventRecordResolved      = "record.resolved"
	EventResolutionCompleted = "resolution.completed"
)

// DefaultBatchSize is the number of record events sent per publish call
const DefaultBatchSize = 500

// Publisher sends events in order
type Publisher interface {
	PublishEvents(ctx context.Context, events []*kafka.Event) error
}

// Emitter handles event emission for resolution runs
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	batchSize int
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// ResolutionCompletedData is the payload of a resolution.completed event
type ResolutionCompletedData struct {
	Stats   models.RunStats `json:"stats"`
	Skipped int             `json:"skipped"`
}

// EmitRun publishes one record.resolved event per resolved record, keyed by the resolved id,
// followed by a resolution.completed event keyed by the run id.
func (e *Emitter) EmitRun(ctx context.Context, result *resolution.Result) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRun")
	defer span.End()

	log := e.logger.WithContext(ctx).WithField("run_id", result.RunID)

	batch := make([]*kafka.Event, 0, min(e.batchSize, len(result.Resolved)))
	for _, record := range result.Resolved {
		event, err := e.recordResolved(result.RunID, record)
		if err != nil {
			return err
		}
		batch = append(batch, event)
		if len(batch) == e.batchSize {
			if err := e.publish(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := e.publish(ctx, batch); err != nil {
		return err
	}

	data, err := json.Marshal(ResolutionCompletedData{Stats: result.Stats, Skipped: len(result.Skipped)})
	if err != nil {
		return err
	}
	completed := &kafka.Event{
		EventType: EventResolutionCompleted,
		RunID:     result.RunID,
		Key:       result.RunID,
		Data:      data,
	}
	if err := e.publish(ctx, []*kafka.Event{completed}); err != nil {
		return err
	}

	log.WithField("records", len(result.Resolved)).Info("Emitted resolution events")
	return nil
}

func (e *Emitter) recordResolved(runID string, record models.ResolvedRecord) (*kafka.Event, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return &kafka.Event{
		EventType: EventRecordResolved,
		RunID:     runID,
		Key:       record.ID,
		Data:      data,
	}, nil
}

func (e *Emitter) publish(ctx context.Context, batch []*kafka.Event) error {
	if len(batch) == 0 {
		return nil
	}
	if err := e.publisher.PublishEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit resolution events")
		return err
	}
	return nil
}
