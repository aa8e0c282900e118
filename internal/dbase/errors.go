package dbase

// In this file: the error taxonomy for database operations.  Each sentinel
// maps to exactly one transport-level response at the HTTP/MCP boundary.

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect indicates that the database file could not be opened.
	ErrConnect = errors.New("cannot connect to database")
	// ErrTableNotFound is returned by Resolve when none of the name forms
	// match a catalog entry.
	ErrTableNotFound = errors.New("table not found")
	// ErrNoColumns is returned when an import produced a table with no
	// columns (the tabular reader could not detect any).
	ErrNoColumns = errors.New("no columns detected")
	// ErrNoRows is returned when an import produced a table with columns
	// but no data rows (e.g. a header-only CSV).
	ErrNoRows = errors.New("no data rows")
	// ErrUnsupportedFileType is returned for uploads that are neither
	// CSV, TSV nor a DuckDB database file.
	ErrUnsupportedFileType = errors.New("unsupported file type: only CSV, TSV and DuckDB files are accepted")
)

// SQLError wraps an engine-level failure together with a truncated copy of
// the statement that caused it, so the failure can be diagnosed from logs
// without re-running the query.
type SQLError struct {
	Query string // truncated to maxQueryLen
	Err   error
}

const maxQueryLen = 100

func (e *SQLError) Error() string {
	return fmt.Sprintf("sql: %v (query: %q)", e.Err, e.Query)
}

func (e *SQLError) Unwrap() error { return e.Err }

// sqlErr wraps err into a SQLError, truncating the query text.
func sqlErr(query string, err error) error {
	if err == nil {
		return nil
	}
	return &SQLError{Query: truncate(query, maxQueryLen), Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
