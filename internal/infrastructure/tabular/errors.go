package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Row-level issue codes reported back with import results
const (
	ErrCodeRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidNumber = "ERR_IMPORT_INVALID_NUMBER"
	ErrCodeInvalidID     = "ERR_IMPORT_INVALID_ID"
	ErrCodeNonPositive   = "ERR_IMPORT_NON_POSITIVE_AMOUNT"
	ErrCodeInvalidDate   = "ERR_IMPORT_INVALID_DATE"
)

var (
	// ErrEmptyFile is returned when the upload carries no bytes
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidEncoding is returned when a CSV is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")

	// ErrMissingHeader is returned when no header row could be located
	ErrMissingHeader = errors.New("file missing header row")

	// ErrNoDataRows is returned when the header is followed by nothing
	ErrNoDataRows = errors.New("file contains no data rows")

	// ErrNoSheets is returned for workbooks without worksheets
	ErrNoSheets = errors.New("workbook contains no sheets")
)

// MissingColumnsError lists required fields none of whose aliases matched
type MissingColumnsError struct {
	Missing []Field
}

// Error implements the error interface
func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(names, ", "))
}

// Unwrap lets callers match ErrMissingHeader
func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingHeader
}

// RowError represents an issue in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps the first maxErrors row issues and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequired records an empty required field
func (ec *ErrorCollection) AddRequired(row int, field Field) {
	ec.Add(RowError{
		Row:     row,
		Column:  string(field),
		Code:    ErrCodeRequiredField,
		Message: fmt.Sprintf("field '%s' is required", field),
	})
}

// AddInvalid records a value that could not be parsed
func (ec *ErrorCollection) AddInvalid(row int, field Field, code, value string) {
	ec.Add(RowError{
		Row:     row,
		Column:  string(field),
		Code:    code,
		Message: fmt.Sprintf("invalid value for '%s'", field),
		Value:   value,
	})
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors added, including dropped ones
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether anything was added
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// Truncated reports whether errors were dropped over the limit
func (ec *ErrorCollection) Truncated() bool {
	return ec.totalCount > len(ec.errors)
}
