package models

// MatchStatus describes how a resolved record was produced.
type MatchStatus string

const (
	StatusMatched    MatchStatus = "matched"
	StatusUnmatchedA MatchStatus = "unmatched_a"
	StatusUnmatchedB MatchStatus = "unmatched_b"
)

// FieldConflict records an output field where both records carried different values.
type FieldConflict struct {
	Field  string `json:"field"`
	AValue string `json:"a_value"`
	BValue string `json:"b_value"`
}

// ResolvedRecord is one row of merged output: a matched pair or a single unmatched record.
type ResolvedRecord struct {
	ID         string          `json:"resolved_id" db:"resolved_id"`
	ConsumerID string          `json:"consumer_id" db:"consumer_id"`
	Status     MatchStatus     `json:"match_status" db:"match_status"`
	SourceAID  string          `json:"source_a_id,omitempty" db:"source_a_id"`
	SourceBID  string          `json:"source_b_id,omitempty" db:"source_b_id"`
	Name       string          `json:"name" db:"name"`
	Street     string          `json:"street" db:"street"`
	Unit       string          `json:"unit" db:"unit"`
	City       string          `json:"city" db:"city"`
	State      string          `json:"state" db:"state"`
	PostalCode string          `json:"postal_code" db:"postal_code"`
	Phone      string          `json:"phone" db:"phone"`
	Email      string          `json:"email" db:"email"`
	Confidence float64         `json:"confidence" db:"confidence"`
	Conflicts  []FieldConflict `json:"conflicts,omitempty" db:"-"`
}
