package models

import "maps"

// AuditEntry is the immutable record of one evaluated candidate.
type AuditEntry struct {
	Seq        int                      `json:"seq"`
	RecordAID  string                   `json:"source_a_id"`
	RecordBID  string                   `json:"source_b_id"`
	PostalCode string                   `json:"postal_code"`
	Scores     map[FieldKind]FieldScore `json:"scores"`
	Overall    float64                  `json:"overall"`
	Thresholds Thresholds               `json:"thresholds"`
	Eligible   bool                     `json:"eligible"`
	Decision   bool                     `json:"decision"`
	Rank       int                      `json:"rank"`
	Selected   bool                     `json:"selected"`
}

// NewAuditEntry snapshots c under the thresholds that were in effect.
func NewAuditEntry(seq int, c MatchCandidate, thresholds Thresholds) AuditEntry {
	return AuditEntry{
		Seq:        seq,
		RecordAID:  c.RecordAID,
		RecordBID:  c.RecordBID,
		PostalCode: c.PostalCode,
		Scores:     maps.Clone(c.Scores),
		Overall:    c.Overall,
		Thresholds: thresholds,
		Eligible:   c.Eligible,
		Decision:   c.Decision,
		Rank:       c.Rank,
		Selected:   c.Selected,
	}
}

// Score returns the similarity recorded for kind.
func (e AuditEntry) Score(kind FieldKind) float64 {
	return e.Scores[kind].Score
}

// Excluded lists the fields left out of the overall score, in FieldKinds order.
func (e AuditEntry) Excluded() []FieldKind {
	excluded := make([]FieldKind, 0, len(FieldKinds))
	for _, kind := range FieldKinds {
		if !e.Scores[kind].Present {
			excluded = append(excluded, kind)
		}
	}
	return excluded
}
