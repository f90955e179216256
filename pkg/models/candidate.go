package models

// Thresholds are the per-field pass thresholds and the overall match threshold.
type Thresholds struct {
	Name    float64 `json:"name" yaml:"name" validate:"gte=0,lte=1"`
	Address float64 `json:"address" yaml:"address" validate:"gte=0,lte=1"`
	Phone   float64 `json:"phone" yaml:"phone" validate:"gte=0,lte=1"`
	Email   float64 `json:"email" yaml:"email" validate:"gte=0,lte=1"`
	Overall float64 `json:"overall" yaml:"overall" validate:"gte=0,lte=1"`
}

// For returns the pass threshold for kind.
func (t Thresholds) For(kind FieldKind) float64 {
	switch kind {
	case FieldName:
		return t.Name
	case FieldAddress:
		return t.Address
	case FieldPhone:
		return t.Phone
	case FieldEmail:
		return t.Email
	default:
		return 1
	}
}

// Weights are the non-negative per-field weights of the overall score.
// They need not sum to 1.
type Weights struct {
	Name    float64 `json:"name" yaml:"name" validate:"gte=0"`
	Address float64 `json:"address" yaml:"address" validate:"gte=0"`
	Phone   float64 `json:"phone" yaml:"phone" validate:"gte=0"`
	Email   float64 `json:"email" yaml:"email" validate:"gte=0"`
}

// For returns the weight for kind.
func (w Weights) For(kind FieldKind) float64 {
	switch kind {
	case FieldName:
		return w.Name
	case FieldAddress:
		return w.Address
	case FieldPhone:
		return w.Phone
	case FieldEmail:
		return w.Email
	default:
		return 0
	}
}

// Total is the sum of all weights.
func (w Weights) Total() float64 {
	return w.Name + w.Address + w.Phone + w.Email
}

// FieldScore is the comparison result for one field of a pair.
type FieldScore struct {
	Score float64 `json:"score"`
	// Present is false when either side was missing; the field is then left out of the overall score.
	Present bool `json:"present"`
	Passed  bool `json:"passed"`
}

// MatchCandidate is an evaluated cross-dataset pair from one block.
type MatchCandidate struct {
	RecordAID  string                   `json:"source_a_id"`
	RecordBID  string                   `json:"source_b_id"`
	PostalCode string                   `json:"postal_code"`
	Scores     map[FieldKind]FieldScore `json:"scores"`
	Overall    float64                  `json:"overall"`
	Eligible   bool                     `json:"eligible"`
	Decision   bool                     `json:"decision"`
	// Rank is the 1-based position among the decided candidates of RecordAID; 0 when undecided.
	Rank     int  `json:"rank"`
	Selected bool `json:"selected"`
}

// Score returns the similarity recorded for kind.
func (c MatchCandidate) Score(kind FieldKind) float64 {
	return c.Scores[kind].Score
}

// Excluded lists the fields left out of the overall score, in FieldKinds order.
func (c MatchCandidate) Excluded() []FieldKind {
	excluded := make([]FieldKind, 0, len(FieldKinds))
	for _, kind := range FieldKinds {
		if !c.Scores[kind].Present {
			excluded = append(excluded, kind)
		}
	}
	return excluded
}
