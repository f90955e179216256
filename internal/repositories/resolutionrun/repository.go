package resolutionrun

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// insertBatchSize bounds the rows per INSERT so statements stay under driver parameter limits.
const insertBatchSize = 200

const (
	defaultLimit = 100
	maxLimit     = 1000
)

var runColumns = []string{
	"run_id", "created_at", "thresholds",
	"records_a", "records_b", "skipped_a", "skipped_b", "blocks", "unblocked",
	"comparisons", "decided", "matched", "unmatched_a", "unmatched_b", "resolved", "warnings",
}

var resolvedColumns = []string{
	"resolved_id", "consumer_id", "match_status", "source_a_id", "source_b_id",
	"name", "street", "unit", "city", "state", "postal_code", "phone", "email",
	"confidence", "conflicts",
}

var auditColumns = []string{
	"seq", "record_a_id", "record_b_id", "postal_code", "scores", "overall",
	"eligible", "decision", "candidate_rank", "selected",
}

// ResolvedFilter narrows ListResolved
type ResolvedFilter struct {
	Status models.MatchStatus
	Limit  int
	Offset int
}

// AuditFilter narrows ListAudit
type AuditFilter struct {
	RecordAID string
	Limit     int
	Offset    int
}

type runRow struct {
	models.Run
	ThresholdsJSON string `db:"thresholds"`
}

type resolvedRow struct {
	models.ResolvedRecord
	ConflictsJSON string `db:"conflicts"`
}

type auditRow struct {
	Seq        int     `db:"seq"`
	RecordAID  string  `db:"record_a_id"`
	RecordBID  string  `db:"record_b_id"`
	PostalCode string  `db:"postal_code"`
	Scores     string  `db:"scores"`
	Overall    float64 `db:"overall"`
	Eligible   bool    `db:"eligible"`
	Decision   bool    `db:"decision"`
	Rank       int     `db:"candidate_rank"`
	Selected   bool    `db:"selected"`
}

// Repository handles resolution run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new resolution run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SaveRun stores a finished run with its resolved records and audit trail in one transaction.
func (r *Repository) SaveRun(ctx context.Context, result *resolution.Result) (*models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "resolutionrun.Repository.SaveRun")
	defer span.End()

	run := &models.Run{
		ID:         result.RunID,
		CreatedAt:  time.Now().UTC(),
		Thresholds: result.Trail.Thresholds(),
		RunStats:   result.Stats,
	}
	thresholds, err := json.Marshal(run.Thresholds)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ib := r.db.Flavor().NewInsertBuilder()
		ib.InsertInto("resolution_runs")
		ib.Cols(runColumns...)
		s := run.RunStats
		ib.Values(run.ID, run.CreatedAt, string(thresholds),
			s.RecordsA, s.RecordsB, s.SkippedA, s.SkippedB, s.Blocks, s.Unblocked,
			s.Comparisons, s.Decided, s.Matched, s.UnmatchedA, s.UnmatchedB, s.Resolved, s.Warnings)
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		if err := r.insertResolved(ctx, tx, run.ID, result.Resolved); err != nil {
			return err
		}
		var entries []models.AuditEntry
		for entry := range result.Trail.All() {
			entries = append(entries, entry)
		}
		return r.insertAudit(ctx, tx, run.ID, entries)
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("run_id", run.ID).Error("Failed to save resolution run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to save resolution run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":   run.ID,
		"resolved": len(result.Resolved),
		"audit":    run.Comparisons,
	}).Debug("Saved resolution run")
	return run, nil
}

func (r *Repository) insertResolved(ctx context.Context, tx *sqlx.Tx, runID string, records []models.ResolvedRecord) error {
	for start := 0; start < len(records); start += insertBatchSize {
		batch := records[start:min(start+insertBatchSize, len(records))]

		ib := r.db.Flavor().NewInsertBuilder()
		ib.InsertInto("resolved_records")
		ib.Cols(append([]string{"run_id", "position"}, resolvedColumns...)...)
		for i, rec := range batch {
			conflicts, err := json.Marshal(rec.Conflicts)
			if err != nil {
				return err
			}
			ib.Values(runID, start+i, rec.ID, rec.ConsumerID, string(rec.Status), rec.SourceAID, rec.SourceBID,
				rec.Name, rec.Street, rec.Unit, rec.City, rec.State, rec.PostalCode, rec.Phone, rec.Email,
				rec.Confidence, string(conflicts))
		}
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) insertAudit(ctx context.Context, tx *sqlx.Tx, runID string, entries []models.AuditEntry) error {
	for start := 0; start < len(entries); start += insertBatchSize {
		batch := entries[start:min(start+insertBatchSize, len(entries))]

		ib := r.db.Flavor().NewInsertBuilder()
		ib.InsertInto("audit_entries")
		ib.Cols(append([]string{"run_id"}, auditColumns...)...)
		for _, e := range batch {
			scores, err := json.Marshal(e.Scores)
			if err != nil {
				return err
			}
			ib.Values(runID, e.Seq, e.RecordAID, e.RecordBID, e.PostalCode, string(scores), e.Overall,
				e.Eligible, e.Decision, e.Rank, e.Selected)
		}
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *Repository) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "resolutionrun.Repository.GetRun")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(runColumns...)
	sb.From("resolution_runs")
	sb.Where(sb.Equal("run_id", runID))

	query, args := sb.Build()
	var row runRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("resolution run %s not found", runID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get resolution run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get resolution run")
	}

	run := row.Run
	if err := json.Unmarshal([]byte(row.ThresholdsJSON), &run.Thresholds); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to decode run thresholds")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get resolution run")
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}

// ListResolved returns a run's resolved records in output order
func (r *Repository) ListResolved(ctx context.Context, runID string, filter ResolvedFilter) ([]models.ResolvedRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "resolutionrun.Repository.ListResolved")
	defer span.End()

	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(resolvedColumns...)
	sb.From("resolved_records")
	where := []string{sb.Equal("run_id", runID)}
	if filter.Status != "" {
		where = append(where, sb.Equal("match_status", string(filter.Status)))
	}
	sb.Where(where...)
	sb.OrderBy("position")
	sb.Limit(limit(filter.Limit))
	sb.Offset(max(filter.Offset, 0))

	query, args := sb.Build()
	var rows []resolvedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list resolved records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list resolved records")
	}

	records := make([]models.ResolvedRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ResolvedRecord
		if err := json.Unmarshal([]byte(row.ConflictsJSON), &records[i].Conflicts); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to decode conflicts")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list resolved records")
		}
	}
	return records, nil
}

// ListAudit returns a run's audit entries in sequence order
func (r *Repository) ListAudit(ctx context.Context, runID string, filter AuditFilter) ([]models.AuditEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "resolutionrun.Repository.ListAudit")
	defer span.End()

	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(auditColumns...)
	sb.From("audit_entries")
	where := []string{sb.Equal("run_id", runID)}
	if filter.RecordAID != "" {
		where = append(where, sb.Equal("record_a_id", filter.RecordAID))
	}
	sb.Where(where...)
	sb.OrderBy("seq")
	sb.Limit(limit(filter.Limit))
	sb.Offset(max(filter.Offset, 0))

	query, args := sb.Build()
	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list audit entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}

	entries := make([]models.AuditEntry, len(rows))
	for i, row := range rows {
		entries[i] = models.AuditEntry{
			Seq:        row.Seq,
			RecordAID:  row.RecordAID,
			RecordBID:  row.RecordBID,
			PostalCode: row.PostalCode,
			Overall:    row.Overall,
			Thresholds: run.Thresholds,
			Eligible:   row.Eligible,
			Decision:   row.Decision,
			Rank:       row.Rank,
			Selected:   row.Selected,
		}
		if err := json.Unmarshal([]byte(row.Scores), &entries[i].Scores); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to decode audit scores")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
		}
	}
	return entries, nil
}

func limit(n int) int {
	if n < 1 || n > maxLimit {
		return defaultLimit
	}
	return n
}
