package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func record(source models.Source, id, zip string) models.NormalizedRecord {
	return models.NormalizedRecord{Source: source, RecordID: id, PostalCode: models.Present(zip)}
}

func TestBlocker_Block(t *testing.T) {
	records := []models.NormalizedRecord{
		record(models.SourceA, "a2", "60614"),
		record(models.SourceB, "b1", "60614"),
		record(models.SourceA, "a1", "60614"),
		record(models.SourceA, "a3", "10001"),
		record(models.SourceB, "b2", "10001"),
		record(models.SourceB, "b3", "94110"),
		record(models.SourceA, "a4", ""),
		record(models.SourceB, "b4", ""),
	}

	blocks := New(nil).Block(records)

	t.Run("blocks sorted by postal code", func(t *testing.T) {
		require.Len(t, blocks.Blocks, 3)
		assert.Equal(t, "10001", blocks.Blocks[0].PostalCode)
		assert.Equal(t, "60614", blocks.Blocks[1].PostalCode)
		assert.Equal(t, "94110", blocks.Blocks[2].PostalCode)
	})

	t.Run("missing postal code goes to unblocked in input order", func(t *testing.T) {
		require.Len(t, blocks.Unblocked, 2)
		assert.Equal(t, "a4", blocks.Unblocked[0].RecordID)
		assert.Equal(t, "b4", blocks.Unblocked[1].RecordID)
	})

	t.Run("every record in exactly one place", func(t *testing.T) {
		seen := map[string]int{}
		for _, block := range blocks.Blocks {
			for _, r := range append(append([]models.NormalizedRecord{}, block.A...), block.B...) {
				seen[r.RecordID]++
			}
		}
		for _, r := range blocks.Unblocked {
			seen[r.RecordID]++
		}
		assert.Len(t, seen, len(records))
		for id, count := range seen {
			assert.Equal(t, 1, count, id)
		}
	})

	t.Run("pairs are cross dataset in id order", func(t *testing.T) {
		var pairs [][2]string
		for a, b := range blocks.Blocks[1].Pairs() {
			pairs = append(pairs, [2]string{a.RecordID, b.RecordID})
		}
		assert.Equal(t, [][2]string{{"a1", "b1"}, {"a2", "b1"}}, pairs)
	})

	t.Run("single dataset block yields no pairs", func(t *testing.T) {
		assert.Equal(t, 0, blocks.Blocks[2].PairCount())
		assert.Len(t, blocks.Comparable(), 2)
		assert.Equal(t, 3, blocks.PairCount())
	})
}

func TestBlock_PairsStopsEarly(t *testing.T) {
	block := Block{
		PostalCode: "60614",
		A:          []models.NormalizedRecord{record(models.SourceA, "a1", "60614"), record(models.SourceA, "a2", "60614")},
		B:          []models.NormalizedRecord{record(models.SourceB, "b1", "60614")},
	}
	count := 0
	for range block.Pairs() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
