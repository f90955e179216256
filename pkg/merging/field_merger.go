// Package merging builds resolved records from decided matches and unmatched records.
package merging

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// FieldMerger picks one value per output field from the two sides of a match.
type FieldMerger struct {
	// priorities rank sources when both sides carry a value; higher wins.
	priorities map[models.Source]int
}

// NewFieldMerger creates a FieldMerger where dataset A takes precedence over dataset B.
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{
		priorities: map[models.Source]int{
			models.SourceA: 2,
			models.SourceB: 1,
		},
	}
}

// MergeField returns the winning value for field and, when both sides are present and differ,
// the conflict that was resolved.
func (m *FieldMerger) MergeField(field string, a, b models.Value) (models.Value, *models.FieldConflict) {
	value := m.preferNonEmpty(a, b)
	return value, m.detectConflict(field, a, b)
}

// preferNonEmpty returns the only present value, or the most trusted when both are present.
func (m *FieldMerger) preferNonEmpty(a, b models.Value) models.Value {
	switch {
	case a.IsMissing():
		return b
	case b.IsMissing():
		return a
	default:
		return m.mostTrusted(a, b)
	}
}

func (m *FieldMerger) mostTrusted(a, b models.Value) models.Value {
	if m.priorities[models.SourceB] > m.priorities[models.SourceA] {
		return b
	}
	return a
}

func (m *FieldMerger) detectConflict(field string, a, b models.Value) *models.FieldConflict {
	if a.IsMissing() || b.IsMissing() || a.Text == b.Text {
		return nil
	}
	return &models.FieldConflict{
		Field:  field,
		AValue: a.Text,
		BValue: b.Text,
	}
}
