package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// FieldScorer scores one field of a record pair.
// Name and address are fuzzy token-set comparisons; phone and email are strict.
type FieldScorer struct {
	fuzzy TokenSet
}

// NewFieldScorer creates a FieldScorer whose fuzzy fields use similarity as the base metric.
func NewFieldScorer(similarity StringSimilarity) *FieldScorer {
	if similarity == nil {
		similarity = SimilarityFunc(IndelRatio)
	}
	return &FieldScorer{fuzzy: TokenSet{Base: similarity}}
}

// Score returns the similarity of a and b for kind in [0,1]. A missing side scores 0.
func (s *FieldScorer) Score(kind models.FieldKind, a, b models.Value) float64 {
	return s.Compare(kind, a, b).Score
}

// Compare scores a and b and reports whether both sides were present.
// Pass flags are left to the engine, which owns the thresholds.
func (s *FieldScorer) Compare(kind models.FieldKind, a, b models.Value) models.FieldScore {
	if a.IsMissing() || b.IsMissing() {
		return models.FieldScore{Score: 0.0, Present: false}
	}

	var score float64
	switch kind {
	case models.FieldName, models.FieldAddress:
		score = s.fuzzy.Similarity(a.Text, b.Text)
	case models.FieldPhone, models.FieldEmail:
		score = ExactMatch(a.Text, b.Text)
	}
	return models.FieldScore{Score: clamp(score), Present: true}
}

func clamp(score float64) float64 {
	return min(max(score, 0.0), 1.0)
}
