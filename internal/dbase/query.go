package dbase

// In this file: ad-hoc query execution with default LIMIT injection.

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Result is a tabular query result with column order preserved.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Query executes an ad-hoc SQL statement.  A bare SELECT (one without a
// LIMIT anywhere in its text) gets " LIMIT limit" appended; a trailing
// semicolon is stripped first so the clause lands inside the statement.
func (d *Database) Query(ctx context.Context, query string, limit int) (*Result, error) {
	stmt := withLimit(query, limit)
	if stmt != query {
		d.lg.DebugContext(ctx, "applied default row limit", "limit", limit, "query", truncate(query, maxQueryLen))
	}
	conn, err := d.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return queryConn(ctx, conn, stmt)
}

// withLimit appends a LIMIT clause to a SELECT statement that has none.
// Non-SELECT statements and statements that already contain LIMIT are
// returned with only the trailing semicolon trimmed.
func withLimit(query string, limit int) string {
	stmt := strings.TrimSpace(query)
	stmt = strings.TrimRight(stmt, ";")
	stmt = strings.TrimSpace(stmt)
	upper := strings.ToUpper(stmt)
	if !strings.HasPrefix(upper, "SELECT") {
		return stmt
	}
	if strings.Contains(upper, "LIMIT") {
		return stmt
	}
	return fmt.Sprintf("%s LIMIT %d", stmt, limit)
}

// queryConn runs stmt on conn and scans all rows into a Result.
func queryConn(ctx context.Context, conn sqlx.QueryerContext, stmt string) (*Result, error) {
	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, sqlErr(stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, sqlErr(stmt, err)
	}
	res := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, sqlErr(stmt, err)
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlErr(stmt, err)
	}
	return res, nil
}
