package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

type fakePublisher struct {
	batches [][]*kafka.Event
	failAt  int
}

func (p *fakePublisher) PublishEvents(_ context.Context, events []*kafka.Event) error {
	if p.failAt > 0 && len(p.batches)+1 == p.failAt {
		return errors.New("publish failed")
	}
	p.batches = append(p.batches, append([]*kafka.Event(nil), events...))
	return nil
}

func (p *fakePublisher) events() []*kafka.Event {
	var all []*kafka.Event
	for _, b := range p.batches {
		all = append(all, b...)
	}
	return all
}

func testResult(n int) *resolution.Result {
	result := &resolution.Result{RunID: "run-1"}
	for i := range n {
		result.Resolved = append(result.Resolved, models.ResolvedRecord{
			ID:     string(rune('a' + i)),
			Status: models.StatusUnmatchedA,
		})
	}
	result.Stats.Resolved = n
	return result
}

func newEmitter(p Publisher, batchSize int) *Emitter {
	e := NewEmitter(p, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	e.batchSize = batchSize
	return e
}

func TestEmitter_EmitRun(t *testing.T) {
	publisher := &fakePublisher{}
	require.NoError(t, newEmitter(publisher, 2).EmitRun(t.Context(), testResult(5)))

	events := publisher.events()
	require.Len(t, events, 6)
	for i, event := range events[:5] {
		assert.Equal(t, EventRecordResolved, event.EventType)
		assert.Equal(t, "run-1", event.RunID)
		assert.Equal(t, string(rune('a'+i)), event.Key)

		var record models.ResolvedRecord
		require.NoError(t, json.Unmarshal(event.Data, &record))
		assert.Equal(t, event.Key, record.ID)
	}

	completed := events[5]
	assert.Equal(t, EventResolutionCompleted, completed.EventType)
	assert.Equal(t, "run-1", completed.Key)

	var data ResolutionCompletedData
	require.NoError(t, json.Unmarshal(completed.Data, &data))
	assert.Equal(t, 5, data.Stats.Resolved)

	t.Run("batches by size", func(t *testing.T) {
		require.Len(t, publisher.batches, 4)
		assert.Len(t, publisher.batches[0], 2)
		assert.Len(t, publisher.batches[2], 1)
		assert.Len(t, publisher.batches[3], 1)
	})
}

func TestEmitter_EmitRun_NoRecords(t *testing.T) {
	publisher := &fakePublisher{}
	require.NoError(t, newEmitter(publisher, DefaultBatchSize).EmitRun(t.Context(), testResult(0)))

	events := publisher.events()
	require.Len(t, events, 1)
	assert.Equal(t, EventResolutionCompleted, events[0].EventType)
}

func TestEmitter_EmitRun_PublishError(t *testing.T) {
	publisher := &fakePublisher{failAt: 2}
	err := newEmitter(publisher, 2).EmitRun(t.Context(), testResult(5))

	assert.EqualError(t, err, "publish failed")
	assert.Len(t, publisher.batches, 1)
}
