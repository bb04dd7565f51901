package analysis

import (
	"errors"
	"fmt"
)

// ErrNotApplicable marks a query that is structurally undefined for the
// current data, such as correlation with fewer than two numeric columns.
// It is not a processing failure.
var ErrNotApplicable = errors.New("not applicable")

// NotFoundError indicates the source file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Path)
}

// EmptyInputError indicates the source has no header or no data rows.
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	if e.Path == "" {
		return "source is empty"
	}
	return fmt.Sprintf("source is empty: %s", e.Path)
}

// ParseError indicates malformed delimited input. Line is 1-based and zero
// when the failure is not tied to a line.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ColumnNotFoundError indicates a query named a column the table lacks.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %q", e.Column)
}
