package mcp

// In this file: the database surface the MCP tools depend on.

import (
	"context"

	"github.com/localduck/localduck/internal/dbase"
)

//go:generate mockgen -destination=mock_mcp/mock_querier.go -package=mock_mcp . Querier

// Querier is the subset of the database layer used by the tool handlers.
// *dbase.Database satisfies it.
type Querier interface {
	// Query executes ad-hoc SQL, applying limit to bare SELECTs.
	Query(ctx context.Context, query string, limit int) (*dbase.Result, error)
	// Tables lists all tables in the database.
	Tables(ctx context.Context) ([]string, error)
	// Resolve maps a caller-supplied table name to its stored form.
	Resolve(ctx context.Context, name string) (string, error)
	// Describe returns the column definitions of a table.
	Describe(ctx context.Context, table string) ([]dbase.Column, error)
	// RowCount returns the number of rows in a table.
	RowCount(ctx context.Context, table string) (int64, error)
}

var _ Querier = (*dbase.Database)(nil)
