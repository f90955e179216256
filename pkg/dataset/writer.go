package dataset

import (
	"encoding/csv"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

// ResolvedHeader is the column layout of the resolved-records artifact.
var ResolvedHeader = []string{
	"resolved_id", "consumer_id", "name", "street", "unit", "city", "state", "postal_code",
	"phone", "email", "confidence", "source_a_id", "source_b_id", "match_status", "conflicts",
}

// AuditHeader is the column layout of the audit artifact.
var AuditHeader = []string{
	"seq", "source_a_id", "source_b_id", "postal_code",
	"name_score", "address_score", "phone_score", "email_score", "excluded_fields",
	"overall_score", "eligible", "decision", "rank", "selected",
	"name_threshold", "address_threshold", "phone_threshold", "email_threshold", "overall_threshold",
}

// FormatScore renders a score with fixed precision so identical runs produce identical bytes.
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// WriteResolved writes records as CSV with a header row.
func WriteResolved(w io.Writer, records []models.ResolvedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResolvedHeader); err != nil {
		return err
	}
	for _, r := range records {
		conflicts := make([]string, 0, len(r.Conflicts))
		for _, c := range r.Conflicts {
			conflicts = append(conflicts, c.Field)
		}
		row := []string{
			r.ID, r.ConsumerID, r.Name, r.Street, r.Unit, r.City, r.State, r.PostalCode,
			r.Phone, r.Email, FormatScore(r.Confidence), r.SourceAID, r.SourceBID, string(r.Status),
			strings.Join(conflicts, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAudit writes every entry of the sequence as CSV with a header row.
func WriteAudit(w io.Writer, entries iter.Seq[models.AuditEntry]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AuditHeader); err != nil {
		return err
	}
	for e := range entries {
		excluded := make([]string, 0, len(models.FieldKinds))
		for _, kind := range e.Excluded() {
			excluded = append(excluded, string(kind))
		}
		row := []string{
			strconv.Itoa(e.Seq), e.RecordAID, e.RecordBID, e.PostalCode,
			FormatScore(e.Score(models.FieldName)),
			FormatScore(e.Score(models.FieldAddress)),
			FormatScore(e.Score(models.FieldPhone)),
			FormatScore(e.Score(models.FieldEmail)),
			strings.Join(excluded, ";"),
			FormatScore(e.Overall),
			strconv.FormatBool(e.Eligible),
			strconv.FormatBool(e.Decision),
			strconv.Itoa(e.Rank),
			strconv.FormatBool(e.Selected),
			FormatScore(e.Thresholds.Name),
			FormatScore(e.Thresholds.Address),
			FormatScore(e.Thresholds.Phone),
			FormatScore(e.Thresholds.Email),
			FormatScore(e.Thresholds.Overall),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResolvedFile writes the resolved artifact to path.
func WriteResolvedFile(path string, records []models.ResolvedRecord) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteResolved(w, records)
	})
}

// WriteAuditFile writes the audit artifact to path.
func WriteAuditFile(path string, entries iter.Seq[models.AuditEntry]) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteAudit(w, entries)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.NewIOError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError("close", path, err)
	}
	return nil
}
