package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when a file decodes to no rows at all.
var ErrEmptyInput = errors.New("empty file")

// FormatError reports text that is not a valid duration or number.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q: %s", e.Input, e.Reason)
}

// SchemaError reports a header row missing the columns a file needs:
// a name and at least one event column.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required column: " + strings.Join(e.Missing, ", ")
}

// RowError describes one problem with one data row. Skipped rows produced
// no results; other row errors flag a cell that was treated as blank.
type RowError struct {
	Line    int      `json:"line"`
	Column  string   `json:"column,omitempty"`
	Reason  string   `json:"reason"`
	Data    []string `json:"data,omitempty"`
	Skipped bool     `json:"skipped"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}
