package merging

import (
	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Merger produces resolved records. Each input record contributes to exactly one of them.
type Merger struct {
	fields *FieldMerger
}

// New creates a Merger
func New() *Merger {
	return &Merger{fields: NewFieldMerger()}
}

// Merge combines a decided candidate's two records. The confidence is the candidate's overall score.
func (m *Merger) Merge(candidate models.MatchCandidate, a, b models.NormalizedRecord) models.ResolvedRecord {
	var conflicts []models.FieldConflict
	merge := func(field string, av, bv models.Value) string {
		value, conflict := m.fields.MergeField(field, av, bv)
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
		return value.Text
	}

	resolved := models.ResolvedRecord{
		ID:         fingerprint.ResolvedID(a.RecordID, b.RecordID),
		Status:     models.StatusMatched,
		SourceAID:  a.RecordID,
		SourceBID:  b.RecordID,
		Name:       merge("name", a.Name, b.Name),
		Street:     merge("street", a.Street, b.Street),
		Unit:       merge("unit", a.Unit, b.Unit),
		City:       merge("city", a.City, b.City),
		State:      merge("state", a.State, b.State),
		PostalCode: merge("postal_code", a.PostalCode, b.PostalCode),
		Phone:      merge("phone", a.Phone, b.Phone),
		Email:      merge("email", a.Email, b.Email),
		Confidence: min(max(candidate.Overall, 0.0), 1.0),
		Conflicts:  conflicts,
	}
	resolved.ConsumerID = consumerID(resolved)
	return resolved
}

// Passthrough wraps an unmatched record. Its confidence is 0 since nothing corroborates it.
func (m *Merger) Passthrough(r models.NormalizedRecord) models.ResolvedRecord {
	resolved := models.ResolvedRecord{
		Name:       r.Name.Text,
		Street:     r.Street.Text,
		Unit:       r.Unit.Text,
		City:       r.City.Text,
		State:      r.State.Text,
		PostalCode: r.PostalCode.Text,
		Phone:      r.Phone.Text,
		Email:      r.Email.Text,
		Confidence: 0.0,
	}
	switch r.Source {
	case models.SourceA:
		resolved.Status = models.StatusUnmatchedA
		resolved.SourceAID = r.RecordID
	default:
		resolved.Status = models.StatusUnmatchedB
		resolved.SourceBID = r.RecordID
	}
	resolved.ID = fingerprint.ResolvedID(resolved.SourceAID, resolved.SourceBID)
	resolved.ConsumerID = consumerID(resolved)
	return resolved
}

func consumerID(r models.ResolvedRecord) string {
	return fingerprint.ConsumerID(r.Name, r.Street, r.PostalCode, r.Email, r.Phone)
}
