package errors

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// RecordValidationError marks an input row that cannot take part in resolution.
// The row is skipped and the batch continues.
type RecordValidationError struct {
	Source   string
	RecordID string
	Line     int
	Reason   string
}

func NewRecordValidationError(source, reason string) *RecordValidationError {
	return &RecordValidationError{
		Source: source,
		Reason: reason,
	}
}

func (e *RecordValidationError) AddRecordID(recordID string) *RecordValidationError {
	e.RecordID = recordID
	return e
}

func (e *RecordValidationError) AddLine(line int) *RecordValidationError {
	e.Line = line
	return e
}

func (e *RecordValidationError) Error() string {
	path := []string{fmt.Sprintf("dataset '%s'", e.Source)}
	if e.Line > 0 {
		path = append(path, fmt.Sprintf("line %d", e.Line))
	}
	if e.RecordID != "" {
		path = append(path, fmt.Sprintf("record '%s'", e.RecordID))
	}
	return strings.Join(path, " -> ") + ": " + e.Reason
}

func (e *RecordValidationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).
		AddMetaValue("source", e.Source).
		AddMetaValue("record_id", e.RecordID).
		AddMetaValue("line", strconv.Itoa(e.Line))
}

// FieldCoercionWarning records a field value that was replaced by the missing sentinel.
type FieldCoercionWarning struct {
	Source   string
	RecordID string
	Field    string
	Value    string
	Reason   string
}

func NewFieldCoercionWarning(field, value, reason string) *FieldCoercionWarning {
	return &FieldCoercionWarning{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

func (e *FieldCoercionWarning) AddRecord(source, recordID string) *FieldCoercionWarning {
	e.Source = source
	e.RecordID = recordID
	return e
}

func (e *FieldCoercionWarning) Error() string {
	path := []string{}
	if e.Source != "" {
		path = append(path, fmt.Sprintf("dataset '%s'", e.Source))
	}
	if e.RecordID != "" {
		path = append(path, fmt.Sprintf("record '%s'", e.RecordID))
	}
	path = append(path, fmt.Sprintf("field '%s'", e.Field))
	return strings.Join(path, " -> ") + fmt.Sprintf(": %q %s", e.Value, e.Reason)
}

func (e *FieldCoercionWarning) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).
		AddMetaValue("source", e.Source).
		AddMetaValue("record_id", e.RecordID).
		AddMetaValue("field", e.Field)
}

// ConfigurationError is a malformed threshold, weight or lookup table. It is fatal.
type ConfigurationError struct {
	Field  string
	Reason string
}

func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Field:  field,
		Reason: reason,
	}
}

// NewConfigurationErrorf creates a ConfigurationError with a formatted reason
func NewConfigurationErrorf(field, format string, args ...any) *ConfigurationError {
	return NewConfigurationError(field, fmt.Sprintf(format, args...))
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: field '%s': %s", e.Field, e.Reason)
}

func (e *ConfigurationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).AddMetaValue("field", e.Field)
}

// IOError is a failure reading or writing an artifact. It is fatal and carries the failing path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func NewIOError(op, path string, err error) *IOError {
	return &IOError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusInternalServerError, e.Error()).
		AddMetaValue("op", e.Op).
		AddMetaValue("path", e.Path)
}

func IsRecordValidationError(err error) bool {
	var target *RecordValidationError
	return as(err, &target)
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return as(err, &target)
}

func IsIOError(err error) bool {
	var target *IOError
	return as(err, &target)
}

// HTTPError maps any error from this package to an HTTP error; nil when err is not one of them.
func HTTPError(err error) *httperror.HTTPError {
	var rv *RecordValidationError
	var fc *FieldCoercionWarning
	var ce *ConfigurationError
	var ioe *IOError
	switch {
	case as(err, &rv):
		return rv.ToHTTPError()
	case as(err, &fc):
		return fc.ToHTTPError()
	case as(err, &ce):
		return ce.ToHTTPError()
	case as(err, &ioe):
		return ioe.ToHTTPError()
	default:
		return nil
	}
}
