// Package dataset reads input datasets and writes resolved and audit artifacts as CSV.
package dataset

import (
	"bufio"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

// column aliases accepted in headers, matched case-insensitively
var columnAliases = map[string]string{
	"record_id":      "record_id",
	"id":             "record_id",
	"name":           "name",
	"full_name":      "name",
	"first_name":     "first_name",
	"given_name":     "first_name",
	"last_name":      "last_name",
	"family_name":    "last_name",
	"surname":        "last_name",
	"street":         "street",
	"address":        "street",
	"street_address": "street",
	"city":           "city",
	"state":          "state",
	"zip":            "zip",
	"zipcode":        "zip",
	"zip_code":       "zip",
	"postal_code":    "zip",
	"phone":          "phone",
	"phone_number":   "phone",
	"email":          "email",
	"email_address":  "email",
}

// ReadResult holds the rows read from one dataset.
type ReadResult struct {
	Records []models.RawRecord
	// Skipped are malformed rows. They do not stop the read.
	Skipped []*errors.RecordValidationError
}

// ReadFile reads the dataset at path, tagging rows with source.
func ReadFile(path string, source models.Source) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	defer f.Close()

	result, err := read(f, source)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	return result, nil
}

// Read reads a dataset from r. Failures are IOErrors naming the source.
func Read(r io.Reader, source models.Source) (*ReadResult, error) {
	result, err := read(r, source)
	if err != nil {
		return nil, errors.NewIOError("read", "dataset "+string(source), err)
	}
	return result, nil
}

func read(r io.Reader, source models.Source) (*ReadResult, error) {
	buf := bufio.NewReader(r)
	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if bom, err := buf.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	reader := csv.NewReader(buf)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	hasID := false
	for i, h := range header {
		columns[i] = columnAliases[strings.ToLower(strings.TrimSpace(h))]
		if columns[i] == "record_id" {
			hasID = true
		}
	}
	if !hasID {
		return nil, fmt.Errorf("header has no record_id column")
	}

	result := &ReadResult{}
	for {
		row, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				result.Skipped = append(result.Skipped,
					errors.NewRecordValidationError(string(source), parseErr.Err.Error()).AddLine(parseErr.StartLine))
				continue
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		if len(row) != len(columns) {
			result.Skipped = append(result.Skipped,
				errors.NewRecordValidationError(string(source), fmt.Sprintf("expected %d columns, got %d", len(columns), len(row))).AddLine(line))
			continue
		}

		record := models.RawRecord{Source: source, Line: line}
		for i, value := range row {
			assign(&record, columns[i], value)
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

func assign(r *models.RawRecord, column, value string) {
	value = strings.TrimSpace(value)
	switch column {
	case "record_id":
		r.RecordID = value
	case "name":
		r.Name = value
	case "first_name":
		r.GivenName = value
	case "last_name":
		r.FamilyName = value
	case "street":
		r.Street = value
	case "city":
		r.City = value
	case "state":
		r.State = value
	case "zip":
		r.PostalCode = value
	case "phone":
		r.Phone = value
	case "email":
		r.Email = value
	}
}
