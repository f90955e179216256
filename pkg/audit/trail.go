// Package audit keeps the append-only trail of every evaluated candidate pair.
package audit

import (
	"iter"
	"maps"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Trail is an append-only log of audit entries. It is safe for concurrent use.
type Trail struct {
	mu         sync.RWMutex
	thresholds models.Thresholds
	entries    []models.AuditEntry
}

// NewTrail creates an empty trail recording entries under thresholds.
func NewTrail(thresholds models.Thresholds) *Trail {
	return &Trail{thresholds: thresholds}
}

// Record appends the entry for an evaluated candidate and returns it. Sequence numbers start at 1.
func (t *Trail) Record(c models.MatchCandidate) models.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := models.NewAuditEntry(len(t.entries)+1, c, t.thresholds)
	t.entries = append(t.entries, entry)
	return entry
}

// Thresholds returns the thresholds every entry is recorded under.
func (t *Trail) Thresholds() models.Thresholds {
	return t.thresholds
}

// Len returns the number of recorded entries.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// All yields every entry in record order. The sequence ranges over a snapshot taken when
// iteration starts, so it can be ranged again and never observes a partial append.
func (t *Trail) All() iter.Seq[models.AuditEntry] {
	return func(yield func(models.AuditEntry) bool) {
		for _, entry := range t.snapshot() {
			entry.Scores = maps.Clone(entry.Scores)
			if !yield(entry) {
				return
			}
		}
	}
}

// ForRecordA yields the entries involving one dataset-A record.
func (t *Trail) ForRecordA(recordAID string) iter.Seq[models.AuditEntry] {
	return func(yield func(models.AuditEntry) bool) {
		for entry := range t.All() {
			if entry.RecordAID != recordAID {
				continue
			}
			if !yield(entry) {
				return
			}
		}
	}
}

func (t *Trail) snapshot() []models.AuditEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[:len(t.entries):len(t.entries)]
}
