// Package processor drives a resolution run and hands its result to storage and event consumers.
package processor

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RunStore persists finished runs
type RunStore interface {
	SaveRun(ctx context.Context, result *resolution.Result) (*models.Run, error)
}

// RunEmitter announces finished runs
type RunEmitter interface {
	EmitRun(ctx context.Context, result *resolution.Result) error
}

// RunProcessor resolves two datasets, then stores and publishes the result.
// The store and emitter are optional.
type RunProcessor struct {
	logger   ectologger.Logger
	pipeline *resolution.Pipeline
	store    RunStore
	emitter  RunEmitter
}

// NewRunProcessor creates a new run processor
func NewRunProcessor(logger ectologger.Logger, pipeline *resolution.Pipeline, store RunStore, emitter RunEmitter) *RunProcessor {
	return &RunProcessor{
		logger:   logger,
		pipeline: pipeline,
		store:    store,
		emitter:  emitter,
	}
}

// Process runs the pipeline over a and b. The run is stored before it is published, so
// consumers of the events can read it back.
func (p *RunProcessor) Process(ctx context.Context, a, b []models.RawRecord) (*resolution.Result, *models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "RunProcessor.Process")
	defer span.End()

	start := time.Now()
	result, err := p.pipeline.Run(ctx, a, b)
	if err != nil {
		metrics.RecordRunFailure(time.Since(start).Seconds())
		p.logger.WithContext(ctx).WithError(err).Error("Resolution run failed")
		return nil, nil, err
	}
	metrics.RecordRun(result.Stats, time.Since(start).Seconds())

	run := &models.Run{
		ID:         result.RunID,
		CreatedAt:  time.Now().UTC(),
		Thresholds: result.Trail.Thresholds(),
		RunStats:   result.Stats,
	}
	if p.store != nil {
		if run, err = p.store.SaveRun(ctx, result); err != nil {
			return nil, nil, err
		}
	}

	if p.emitter != nil {
		if err := p.emitter.EmitRun(ctx, result); err != nil {
			return result, run, err
		}
	}

	return result, run, nil
}
