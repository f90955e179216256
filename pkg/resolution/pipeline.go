// Package resolution runs the end-to-end record resolution pipeline over two datasets.
package resolution

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/audit"
	"github.com/Ramsey-B/fern/pkg/blocking"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Result is the output of one run.
type Result struct {
	RunID string
	// Resolved holds matched records in audit order, then unmatched A and unmatched B in input order.
	Resolved []models.ResolvedRecord
	Trail    *audit.Trail
	Skipped  []*errors.RecordValidationError
	Warnings []*errors.FieldCoercionWarning
	Stats    models.RunStats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers evaluates up to n blocks concurrently. Output does not depend on n.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline wires the normalizer, blocker, match engine, merger and audit trail.
type Pipeline struct {
	logger     ectologger.Logger
	normalizer *normalizers.Normalizer
	blocker    *blocking.Blocker
	engine     *matching.Engine
	merger     *merging.Merger
	thresholds models.Thresholds
	workers    int
}

// New builds a pipeline from a match profile. An invalid profile is a ConfigurationError.
func New(logger ectologger.Logger, profile config.Matching, opts ...Option) (*Pipeline, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	normalizer, err := profile.Normalizer()
	if err != nil {
		return nil, err
	}
	similarity, err := profile.Similarity()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		logger:     logger,
		normalizer: normalizer,
		blocker:    blocking.New(nil),
		engine:     matching.NewEngine(logger, matching.NewFieldScorer(similarity), profile.Thresholds, profile.Weights),
		merger:     merging.New(),
		thresholds: profile.Thresholds,
		workers:    1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run resolves dataset a against dataset b. Invalid records are skipped and reported in the
// result; only cancellation of ctx stops a run early.
func (p *Pipeline) Run(ctx context.Context, a, b []models.RawRecord) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Pipeline.Run")
	defer span.End()

	log := p.logger.WithContext(ctx)
	result := &Result{RunID: uuid.NewString(), Trail: audit.NewTrail(p.thresholds)}

	acceptedA, skippedA := Accept(models.SourceA, a)
	acceptedB, skippedB := Accept(models.SourceB, b)
	result.Skipped = append(skippedA, skippedB...)
	for _, skipped := range result.Skipped {
		log.WithError(skipped).Warn("Skipping invalid record")
	}

	normA := p.normalize(ctx, acceptedA, result)
	normB := p.normalize(ctx, acceptedB, result)

	blocks := p.block(ctx, normA, normB)
	perBlock, err := p.match(ctx, blocks.Comparable())
	if err != nil {
		return nil, err
	}

	p.merge(ctx, result, perBlock, normA, normB)

	result.Stats.RecordsA = len(acceptedA)
	result.Stats.RecordsB = len(acceptedB)
	result.Stats.SkippedA = len(skippedA)
	result.Stats.SkippedB = len(skippedB)
	result.Stats.Blocks = len(blocks.Blocks)
	result.Stats.Unblocked = len(blocks.Unblocked)
	result.Stats.Comparisons = result.Trail.Len()
	result.Stats.Resolved = len(result.Resolved)
	result.Stats.Warnings = len(result.Warnings)

	log.WithFields(map[string]any{
		"run_id":      result.RunID,
		"records_a":   result.Stats.RecordsA,
		"records_b":   result.Stats.RecordsB,
		"skipped":     len(result.Skipped),
		"comparisons": result.Stats.Comparisons,
		"matched":     result.Stats.Matched,
		"unmatched_a": result.Stats.UnmatchedA,
		"unmatched_b": result.Stats.UnmatchedB,
		"resolved":    result.Stats.Resolved,
	}).Info("Resolution complete")

	return result, nil
}

// Accept tags records with source and drops the ones that cannot take part in resolution:
// an empty id, no data at all, or an id already seen in the dataset.
func Accept(source models.Source, records []models.RawRecord) ([]models.RawRecord, []*errors.RecordValidationError) {
	accepted := make([]models.RawRecord, 0, len(records))
	var skipped []*errors.RecordValidationError
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		r.Source = source
		r.RecordID = strings.TrimSpace(r.RecordID)
		reject := func(reason string) {
			skipped = append(skipped, errors.NewRecordValidationError(string(source), reason).
				AddRecordID(r.RecordID).AddLine(r.Line))
		}

		switch {
		case r.RecordID == "":
			reject("missing record id")
			continue
		case r.IsEmpty():
			reject("record has no data")
			continue
		}
		if _, dup := seen[r.RecordID]; dup {
			reject("duplicate record id")
			continue
		}
		seen[r.RecordID] = struct{}{}
		accepted = append(accepted, r)
	}
	return accepted, skipped
}

func (p *Pipeline) normalize(ctx context.Context, records []models.RawRecord, result *Result) []models.NormalizedRecord {
	_, span := tracing.StartSpan(ctx, "resolution.Pipeline.normalize")
	defer span.End()

	out := make([]models.NormalizedRecord, 0, len(records))
	for _, raw := range records {
		rec, warnings := p.normalizer.NormalizeRecord(raw)
		for _, w := range warnings {
			p.logger.WithContext(ctx).WithFields(map[string]any{
				"source":    w.Source,
				"record_id": w.RecordID,
				"field":     w.Field,
			}).Debug("Coerced field to missing")
		}
		result.Warnings = append(result.Warnings, warnings...)
		out = append(out, rec)
	}
	return out
}

func (p *Pipeline) block(ctx context.Context, a, b []models.NormalizedRecord) *blocking.Blocks {
	_, span := tracing.StartSpan(ctx, "resolution.Pipeline.block")
	defer span.End()

	all := make([]models.NormalizedRecord, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return p.blocker.Block(all)
}

// match evaluates every block. With several workers blocks run concurrently, but results are
// kept per block and consumed in block order.
func (p *Pipeline) match(ctx context.Context, blocks []blocking.Block) ([][]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Pipeline.match")
	defer span.End()

	results := make([][]models.MatchCandidate, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, block := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.engine.Process(gctx, block)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) merge(ctx context.Context, result *Result, perBlock [][]models.MatchCandidate, a, b []models.NormalizedRecord) {
	_, span := tracing.StartSpan(ctx, "resolution.Pipeline.merge")
	defer span.End()

	byIDA := indexByID(a)
	byIDB := indexByID(b)
	matchedA := make(map[string]struct{})
	matchedB := make(map[string]struct{})

	for _, candidates := range perBlock {
		for _, c := range candidates {
			result.Trail.Record(c)
			if c.Decision {
				result.Stats.Decided++
			}
			if !c.Selected {
				continue
			}
			result.Resolved = append(result.Resolved, p.merger.Merge(c, byIDA[c.RecordAID], byIDB[c.RecordBID]))
			matchedA[c.RecordAID] = struct{}{}
			matchedB[c.RecordBID] = struct{}{}
		}
	}
	result.Stats.Matched = len(result.Resolved)

	for _, r := range a {
		if _, ok := matchedA[r.RecordID]; !ok {
			result.Resolved = append(result.Resolved, p.merger.Passthrough(r))
			result.Stats.UnmatchedA++
		}
	}
	for _, r := range b {
		if _, ok := matchedB[r.RecordID]; !ok {
			result.Resolved = append(result.Resolved, p.merger.Passthrough(r))
			result.Stats.UnmatchedB++
		}
	}
}

func indexByID(records []models.NormalizedRecord) map[string]models.NormalizedRecord {
	index := make(map[string]models.NormalizedRecord, len(records))
	for _, r := range records {
		index[r.RecordID] = r
	}
	return index
}
