package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

type recorder struct {
	calls   []string
	saveErr error
	emitErr error
}

func (r *recorder) SaveRun(_ context.Context, result *resolution.Result) (*models.Run, error) {
	r.calls = append(r.calls, "save")
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	return &models.Run{ID: result.RunID, RunStats: result.Stats}, nil
}

func (r *recorder) EmitRun(_ context.Context, _ *resolution.Result) error {
	r.calls = append(r.calls, "emit")
	return r.emitErr
}

func newProcessor(t *testing.T, store RunStore, emitter RunEmitter) *RunProcessor {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	pipeline, err := resolution.New(logger, config.DefaultMatching())
	require.NoError(t, err)
	return NewRunProcessor(logger, pipeline, store, emitter)
}

var (
	datasetA = []models.RawRecord{{RecordID: "a1", Name: "Jane Doe", PostalCode: "02139", Email: "jane@example.com"}}
	datasetB = []models.RawRecord{{RecordID: "b1", Name: "Jane Doe", PostalCode: "02139", Email: "JANE@example.com"}}
)

func TestRunProcessor_Process(t *testing.T) {
	t.Run("stores then emits", func(t *testing.T) {
		rec := &recorder{}
		result, run, err := newProcessor(t, rec, rec).Process(t.Context(), datasetA, datasetB)
		require.NoError(t, err)

		assert.Equal(t, []string{"save", "emit"}, rec.calls)
		assert.Equal(t, result.RunID, run.ID)
		assert.Equal(t, 1, run.Matched)
	})

	t.Run("without store or emitter", func(t *testing.T) {
		result, run, err := newProcessor(t, nil, nil).Process(t.Context(), datasetA, datasetB)
		require.NoError(t, err)
		assert.Equal(t, result.RunID, run.ID)
		assert.Equal(t, result.Stats, run.RunStats)
		assert.False(t, run.CreatedAt.IsZero())
	})

	t.Run("store failure skips emit", func(t *testing.T) {
		rec := &recorder{saveErr: errors.New("disk full")}
		_, _, err := newProcessor(t, rec, rec).Process(t.Context(), datasetA, datasetB)
		assert.EqualError(t, err, "disk full")
		assert.Equal(t, []string{"save"}, rec.calls)
	})

	t.Run("emit failure keeps the result", func(t *testing.T) {
		rec := &recorder{emitErr: errors.New("broker down")}
		result, run, err := newProcessor(t, rec, rec).Process(t.Context(), datasetA, datasetB)
		assert.EqualError(t, err, "broker down")
		assert.NotNil(t, result)
		assert.NotNil(t, run)
	})
}
