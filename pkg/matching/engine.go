package matching

import (
	"cmp"
	"context"
	"slices"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/blocking"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Epsilon is the tolerance of threshold comparisons, so a score equal to its threshold
// up to float rounding passes.
const Epsilon = 1e-9

// Passes reports whether score meets threshold. The boundary is inclusive.
func Passes(score, threshold float64) bool {
	return score >= threshold-Epsilon
}

// Engine combines field scores into an overall score and decides matches within a block.
type Engine struct {
	logger     ectologger.Logger
	scorer     *FieldScorer
	thresholds models.Thresholds
	weights    models.Weights
}

// NewEngine creates a match engine. thresholds and weights are assumed validated.
func NewEngine(logger ectologger.Logger, scorer *FieldScorer, thresholds models.Thresholds, weights models.Weights) *Engine {
	return &Engine{
		logger:     logger,
		scorer:     scorer,
		thresholds: thresholds,
		weights:    weights,
	}
}

// Thresholds returns the thresholds the engine decides with.
func (e *Engine) Thresholds() models.Thresholds {
	return e.thresholds
}

// Process evaluates, decides, ranks and selects the candidates of one block.
func (e *Engine) Process(ctx context.Context, block blocking.Block) []models.MatchCandidate {
	candidates := SelectOneToOne(e.Decide(e.Evaluate(block)))

	decided, selected := 0, 0
	for _, c := range candidates {
		if c.Decision {
			decided++
		}
		if c.Selected {
			selected++
		}
	}
	e.logger.WithContext(ctx).WithFields(map[string]any{
		"postal_code": block.PostalCode,
		"records_a":   len(block.A),
		"records_b":   len(block.B),
		"candidates":  len(candidates),
		"decided":     decided,
		"selected":    selected,
	}).Debug("Evaluated block")

	return candidates
}

// Evaluate scores every cross-dataset pair of block in (A id, B id) order.
// Decision, Rank and Selected are left unset.
func (e *Engine) Evaluate(block blocking.Block) []models.MatchCandidate {
	candidates := make([]models.MatchCandidate, 0, block.PairCount())
	for a, b := range block.Pairs() {
		candidates = append(candidates, e.Score(block.PostalCode, a, b))
	}
	return candidates
}

// Score evaluates one pair: field scores, pass flags, overall score and eligibility.
func (e *Engine) Score(postalCode string, a, b models.NormalizedRecord) models.MatchCandidate {
	scores := make(map[models.FieldKind]models.FieldScore, len(models.FieldKinds))
	var weighted, present float64
	for _, kind := range models.FieldKinds {
		fs := e.scorer.Compare(kind, a.Field(kind), b.Field(kind))
		if fs.Present {
			fs.Passed = Passes(fs.Score, e.thresholds.For(kind))
			weighted += e.weights.For(kind) * fs.Score
			present += e.weights.For(kind)
		}
		scores[kind] = fs
	}

	overall := 0.0
	if present > 0 {
		overall = clamp(weighted / present)
	}

	name := scores[models.FieldName]
	return models.MatchCandidate{
		RecordAID:  a.RecordID,
		RecordBID:  b.RecordID,
		PostalCode: postalCode,
		Scores:     scores,
		Overall:    overall,
		Eligible:   name.Present && name.Passed,
	}
}

// Decide marks eligible candidates whose overall score meets the overall threshold and ranks them.
// The input is not modified.
func (e *Engine) Decide(candidates []models.MatchCandidate) []models.MatchCandidate {
	decided := slices.Clone(candidates)
	for i := range decided {
		decided[i].Decision = decided[i].Eligible && Passes(decided[i].Overall, e.thresholds.Overall)
	}
	return Rank(decided)
}

// compareRank orders candidates by overall score descending, then B id ascending.
func compareRank(x, y models.MatchCandidate) int {
	if c := cmp.Compare(y.Overall, x.Overall); c != 0 {
		return c
	}
	return cmp.Compare(x.RecordBID, y.RecordBID)
}

// Rank numbers the decided candidates of each A record from 1 in ranking order.
// Undecided candidates get rank 0. Slice order is kept; the input is not modified.
func Rank(candidates []models.MatchCandidate) []models.MatchCandidate {
	ranked := slices.Clone(candidates)
	byA := make(map[string][]int)
	for i := range ranked {
		ranked[i].Rank = 0
		if ranked[i].Decision {
			byA[ranked[i].RecordAID] = append(byA[ranked[i].RecordAID], i)
		}
	}
	for _, idx := range byA {
		slices.SortFunc(idx, func(x, y int) int {
			return compareRank(ranked[x], ranked[y])
		})
		for rank, i := range idx {
			ranked[i].Rank = rank + 1
		}
	}
	return ranked
}

// RankedFor returns the decided candidates of one A record in rank order.
func RankedFor(candidates []models.MatchCandidate, recordAID string) []models.MatchCandidate {
	var out []models.MatchCandidate
	for _, c := range candidates {
		if c.Decision && c.RecordAID == recordAID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, compareRank)
	return out
}

// SelectOneToOne picks the pairs to merge: decided candidates are visited by overall score
// descending, then A id, then B id, and a candidate is selected when neither of its records
// was taken yet. Each record is therefore merged at most once. The input is not modified.
func SelectOneToOne(candidates []models.MatchCandidate) []models.MatchCandidate {
	selected := slices.Clone(candidates)
	order := make([]int, 0, len(selected))
	for i := range selected {
		selected[i].Selected = false
		if selected[i].Decision {
			order = append(order, i)
		}
	}
	slices.SortFunc(order, func(x, y int) int {
		cx, cy := selected[x], selected[y]
		if c := cmp.Compare(cy.Overall, cx.Overall); c != 0 {
			return c
		}
		if c := cmp.Compare(cx.RecordAID, cy.RecordAID); c != 0 {
			return c
		}
		return cmp.Compare(cx.RecordBID, cy.RecordBID)
	})

	takenA := make(map[string]struct{})
	takenB := make(map[string]struct{})
	for _, i := range order {
		c := &selected[i]
		_, aTaken := takenA[c.RecordAID]
		_, bTaken := takenB[c.RecordBID]
		if aTaken || bTaken {
			continue
		}
		c.Selected = true
		takenA[c.RecordAID] = struct{}{}
		takenB[c.RecordBID] = struct{}{}
	}
	return selected
}
