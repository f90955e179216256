package matching

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/blocking"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

var (
	defaultThresholds = models.Thresholds{Name: 0.8, Address: 0.7, Phone: 0.9, Email: 0.9, Overall: 0.7}
	defaultWeights    = models.Weights{Name: 0.3, Address: 0.3, Phone: 0.2, Email: 0.2}
)

func newTestEngine(thresholds models.Thresholds, weights models.Weights) *Engine {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEngine(logger, NewFieldScorer(nil), thresholds, weights)
}

func normalized(t *testing.T, source models.Source, id string, raw models.RawRecord) models.NormalizedRecord {
	t.Helper()
	n, err := normalizers.New(normalizers.Tables{})
	require.NoError(t, err)
	raw.Source = source
	raw.RecordID = id
	rec, _ := n.NormalizeRecord(raw)
	return rec
}

func TestFieldScorer(t *testing.T) {
	scorer := NewFieldScorer(nil)

	t.Run("strict fields", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Score(models.FieldPhone, models.Present("5551234567"), models.Present("5551234567")))
		assert.Equal(t, 0.0, scorer.Score(models.FieldPhone, models.Present("5551234567"), models.Present("5551234568")))
		assert.Equal(t, 0.0, scorer.Score(models.FieldEmail, models.Present("a+x@b.com"), models.Present("a@b.com")))
	})

	t.Run("missing side scores zero and is not present", func(t *testing.T) {
		fs := scorer.Compare(models.FieldName, models.Present("robert smith"), models.Missing)
		assert.Equal(t, 0.0, fs.Score)
		assert.False(t, fs.Present)
		fs = scorer.Compare(models.FieldEmail, models.Missing, models.Missing)
		assert.False(t, fs.Present)
	})

	t.Run("nickname equivalence meets name threshold", func(t *testing.T) {
		n, err := normalizers.New(normalizers.Tables{Nicknames: map[string]string{"Bob": "Robert"}})
		require.NoError(t, err)
		a := n.Normalize(models.FieldName, "Bob Smith")
		b := n.Normalize(models.FieldName, "Robert Smith")
		assert.GreaterOrEqual(t, scorer.Score(models.FieldName, a, b), defaultThresholds.Name)
	})

	t.Run("symmetric for every field", func(t *testing.T) {
		values := []models.Value{
			models.Present("robert smith"), models.Present("smith roberta"), models.Present("5551234567"), models.Missing,
		}
		for _, kind := range models.FieldKinds {
			for _, x := range values {
				for _, y := range values {
					assert.Equal(t, scorer.Score(kind, x, y), scorer.Score(kind, y, x))
				}
			}
		}
	})
}

func TestEngine_Score(t *testing.T) {
	engine := newTestEngine(defaultThresholds, defaultWeights)

	t.Run("missing phone and email renormalize weights", func(t *testing.T) {
		a := normalized(t, models.SourceA, "a1", models.RawRecord{Name: "Robert Smith", Street: "123 Main St", City: "Springfield", State: "IL", PostalCode: "62704"})
		b := normalized(t, models.SourceB, "b1", models.RawRecord{Name: "Bob Smith", Street: "123 Main Street", City: "Springfield", State: "Illinois", PostalCode: "62704", Phone: "555-123-4567", Email: "bob@example.com"})

		c := engine.Score("62704", a, b)
		assert.Equal(t, 1.0, c.Overall)
		assert.True(t, c.Eligible)
		assert.False(t, c.Scores[models.FieldPhone].Present)
		assert.False(t, c.Scores[models.FieldEmail].Present)
		assert.Equal(t, []models.FieldKind{models.FieldPhone, models.FieldEmail}, c.Excluded())

		decided := engine.Decide([]models.MatchCandidate{c})
		assert.True(t, decided[0].Decision)
		assert.Equal(t, 1, decided[0].Rank)
	})

	t.Run("weighted overall", func(t *testing.T) {
		a := normalized(t, models.SourceA, "a1", models.RawRecord{Name: "Robert Smith", Street: "1 Elm St", PostalCode: "62704", Phone: "5551234567", Email: "rs@example.com"})
		b := normalized(t, models.SourceB, "b1", models.RawRecord{Name: "Robert Smith", Street: "1 Elm St", PostalCode: "62704", Phone: "5559999999", Email: "rs@example.com"})

		c := engine.Score("62704", a, b)
		assert.InDelta(t, 0.8, c.Overall, 1e-12)
		assert.False(t, c.Scores[models.FieldPhone].Passed)
		assert.True(t, c.Scores[models.FieldEmail].Passed)
	})

	t.Run("name must be present to be eligible", func(t *testing.T) {
		a := normalized(t, models.SourceA, "a1", models.RawRecord{Street: "1 Elm St", PostalCode: "62704", Phone: "5551234567", Email: "rs@example.com"})
		b := normalized(t, models.SourceB, "b1", models.RawRecord{Name: "Robert Smith", Street: "1 Elm St", PostalCode: "62704", Phone: "5551234567", Email: "rs@example.com"})

		c := engine.Score("62704", a, b)
		assert.Equal(t, 1.0, c.Overall)
		assert.False(t, c.Eligible)
		assert.False(t, engine.Decide([]models.MatchCandidate{c})[0].Decision)
	})

	t.Run("record with every field missing is never eligible", func(t *testing.T) {
		a := models.NormalizedRecord{Source: models.SourceA, RecordID: "a1", PostalCode: models.Present("62704")}
		b := normalized(t, models.SourceB, "b1", models.RawRecord{Name: "Robert Smith", PostalCode: "62704"})

		c := engine.Score("62704", a, b)
		assert.Equal(t, 0.0, c.Overall)
		assert.False(t, c.Eligible)
	})
}

func TestEngine_InclusiveBoundary(t *testing.T) {
	weights := models.Weights{Name: 1}
	a := models.NormalizedRecord{Source: models.SourceA, RecordID: "a1", Name: models.Present("abcd")}
	b := models.NormalizedRecord{Source: models.SourceB, RecordID: "b1", Name: models.Present("abce")}

	t.Run("equal to threshold matches", func(t *testing.T) {
		engine := newTestEngine(models.Thresholds{Name: 0.75, Overall: 0.75}, weights)
		c := engine.Decide([]models.MatchCandidate{engine.Score("00000", a, b)})[0]
		assert.Equal(t, 0.75, c.Overall)
		assert.True(t, c.Decision)
	})

	t.Run("just above threshold does not match", func(t *testing.T) {
		engine := newTestEngine(models.Thresholds{Name: 0.75, Overall: 0.750001}, weights)
		c := engine.Decide([]models.MatchCandidate{engine.Score("00000", a, b)})[0]
		assert.False(t, c.Decision)
	})
}

func TestRankAndSelect(t *testing.T) {
	candidates := []models.MatchCandidate{
		{RecordAID: "a1", RecordBID: "b1", Overall: 0.90, Decision: true},
		{RecordAID: "a1", RecordBID: "b2", Overall: 0.90, Decision: true},
		{RecordAID: "a1", RecordBID: "b3", Overall: 0.95, Decision: true},
		{RecordAID: "a1", RecordBID: "b4", Overall: 0.50},
		{RecordAID: "a2", RecordBID: "b3", Overall: 0.99, Decision: true},
	}

	t.Run("rank by overall then B id", func(t *testing.T) {
		ranked := Rank(candidates)
		assert.Equal(t, []int{2, 3, 1, 0, 1}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank, ranked[3].Rank, ranked[4].Rank})
		assert.Equal(t, 0, candidates[0].Rank, "input not modified")

		ids := []string{}
		for _, c := range RankedFor(ranked, "a1") {
			ids = append(ids, c.RecordBID)
		}
		assert.Equal(t, []string{"b3", "b1", "b2"}, ids)
	})

	t.Run("one to one selection", func(t *testing.T) {
		selected := SelectOneToOne(Rank(candidates))
		var picks []string
		for _, c := range selected {
			if c.Selected {
				picks = append(picks, c.RecordAID+"-"+c.RecordBID)
			}
		}
		// a2 takes b3 first, so a1 falls back to its best remaining B record
		assert.ElementsMatch(t, []string{"a2-b3", "a1-b1"}, picks)
	})
}

func TestEngine_Process(t *testing.T) {
	engine := newTestEngine(defaultThresholds, defaultWeights)
	block := blocking.Block{
		PostalCode: "62704",
		A: []models.NormalizedRecord{
			normalized(t, models.SourceA, "a1", models.RawRecord{Name: "Robert Smith", Street: "1 Elm St", PostalCode: "62704"}),
			normalized(t, models.SourceA, "a2", models.RawRecord{Name: "Maria Garcia", Street: "9 Oak Ave", PostalCode: "62704"}),
		},
		B: []models.NormalizedRecord{
			normalized(t, models.SourceB, "b1", models.RawRecord{Name: "Bob Smith", Street: "1 Elm Street", PostalCode: "62704"}),
		},
	}

	candidates := engine.Process(t.Context(), block)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a1", candidates[0].RecordAID)
	assert.True(t, candidates[0].Selected)
	assert.Equal(t, "a2", candidates[1].RecordAID)
	assert.False(t, candidates[1].Decision)
	for _, c := range candidates {
		assert.Equal(t, "62704", c.PostalCode)
	}
}
