// Package blocking partitions normalized records by postal code so only records sharing a block are compared.
package blocking

import (
	"cmp"
	"iter"
	"slices"

	"github.com/Ramsey-B/fern/pkg/models"
)

// KeyFunc extracts the blocking key of a record. A missing key sends the record to the unblocked bucket.
type KeyFunc func(models.NormalizedRecord) models.Value

// PostalCode is the default blocking key.
func PostalCode(r models.NormalizedRecord) models.Value {
	return r.PostalCode
}

// Block is the set of records from both datasets sharing one key.
// A and B are sorted by record id.
type Block struct {
	PostalCode string
	A          []models.NormalizedRecord
	B          []models.NormalizedRecord
}

// Pairs yields every cross-dataset pair of the block ordered by (A id, B id).
// Same-dataset pairs are never produced.
func (b Block) Pairs() iter.Seq2[models.NormalizedRecord, models.NormalizedRecord] {
	return func(yield func(models.NormalizedRecord, models.NormalizedRecord) bool) {
		for _, a := range b.A {
			for _, rb := range b.B {
				if !yield(a, rb) {
					return
				}
			}
		}
	}
}

// PairCount is the number of pairs Pairs yields.
func (b Block) PairCount() int {
	return len(b.A) * len(b.B)
}

// Blocks is the result of blocking: keyed blocks in ascending key order plus the unblocked bucket.
type Blocks struct {
	Blocks []Block
	// Unblocked holds records without a usable key, in input order. They are never compared.
	Unblocked []models.NormalizedRecord
}

// Comparable returns the blocks that produce at least one pair.
func (b *Blocks) Comparable() []Block {
	out := make([]Block, 0, len(b.Blocks))
	for _, block := range b.Blocks {
		if block.PairCount() > 0 {
			out = append(out, block)
		}
	}
	return out
}

// PairCount is the total number of pairs across all blocks.
func (b *Blocks) PairCount() int {
	total := 0
	for _, block := range b.Blocks {
		total += block.PairCount()
	}
	return total
}

// Blocker groups records by an exact key.
type Blocker struct {
	key KeyFunc
}

// New creates a Blocker keyed on postal code, or on key when given.
func New(key KeyFunc) *Blocker {
	if key == nil {
		key = PostalCode
	}
	return &Blocker{key: key}
}

// Block partitions records. Every record lands in exactly one block or in the unblocked bucket.
func (b *Blocker) Block(records []models.NormalizedRecord) *Blocks {
	byKey := make(map[string]*Block)
	result := &Blocks{}

	for _, record := range records {
		key := b.key(record)
		if key.IsMissing() {
			result.Unblocked = append(result.Unblocked, record)
			continue
		}
		block, ok := byKey[key.Text]
		if !ok {
			block = &Block{PostalCode: key.Text}
			byKey[key.Text] = block
		}
		switch record.Source {
		case models.SourceA:
			block.A = append(block.A, record)
		case models.SourceB:
			block.B = append(block.B, record)
		}
	}

	byID := func(x, y models.NormalizedRecord) int {
		return cmp.Compare(x.RecordID, y.RecordID)
	}
	result.Blocks = make([]Block, 0, len(byKey))
	for _, block := range byKey {
		slices.SortStableFunc(block.A, byID)
		slices.SortStableFunc(block.B, byID)
		result.Blocks = append(result.Blocks, *block)
	}
	slices.SortFunc(result.Blocks, func(x, y Block) int {
		return cmp.Compare(x.PostalCode, y.PostalCode)
	})
	return result
}
