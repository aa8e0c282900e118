package mcp

// In this file: MCP tool definitions and handler implementations.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/localduck/localduck/internal/dbase"
)

// ─── execute_query ────────────────────────────────────────────────────────────

func (s *Server) toolExecuteQuery() mcpsrv.ServerTool {
	tool := mcplib.NewTool("execute_query",
		mcplib.WithDescription(`Execute a SQL query against the local DuckDB database.

For SELECT statements you can optionally specify 'limit' to cap the number
of returned rows (default: 100); a LIMIT already present in the query is
never duplicated.  The result is returned as a formatted table in text.`),
		mcplib.WithString("query",
			mcplib.Description("The SQL statement to execute."),
			mcplib.Required(),
		),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of rows returned for a bare SELECT (default 100)."),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleExecuteQuery}
}

func (s *Server) handleExecuteQuery(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query, ok := stringArg(req, "query")
	if !ok || query == "" {
		return resultErr(errors.New("execute_query: query is required")), nil
	}
	limit := intArg(req, "limit", s.limit)

	s.logger.InfoContext(ctx, "mcp: execute_query", "query", truncate(query, 100), "limit", limit)

	res, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return resultErr(fmt.Errorf("execute_query: %w", err)), nil
	}
	if len(res.Rows) == 0 {
		return resultText("The query returned no results."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Query result (%d rows)\n\n", len(res.Rows))
	b.WriteString("```\n")
	writeMarkdownTable(&b, res.Columns, res.Rows)
	b.WriteString("```")
	return resultText(b.String()), nil
}

// ─── get_table_info ───────────────────────────────────────────────────────────

func (s *Server) toolGetTableInfo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_table_info",
		mcplib.WithDescription(`Retrieve information about database tables.

If 'table_name' is provided, returns detailed schema information (columns,
data types, nullability, default values) and the row count for that table.
If omitted, returns a list of all tables in the database with their row
counts.`),
		mcplib.WithString("table_name",
			mcplib.Description("Name of the table to describe; accepts the stored (possibly percent-encoded) or the human-readable form."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetTableInfo}
}

func (s *Server) handleGetTableInfo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name, _ := stringArg(req, "table_name")
	if name == "" {
		return s.tableList(ctx)
	}
	return s.tableDetail(ctx, name)
}

// tableDetail renders the schema and row count of one table.
func (s *Server) tableDetail(ctx context.Context, name string) (*mcplib.CallToolResult, error) {
	table, err := s.db.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, dbase.ErrTableNotFound) {
			tables, terr := s.db.Tables(ctx)
			if terr != nil {
				return resultErr(fmt.Errorf("get_table_info: %w", terr)), nil
			}
			avail := "none"
			if len(tables) > 0 {
				avail = strings.Join(tables, ", ")
			}
			return resultText(fmt.Sprintf("Table %q not found. Available tables: %s", name, avail)), nil
		}
		return resultErr(fmt.Errorf("get_table_info: %w", err)), nil
	}

	cols, err := s.db.Describe(ctx, table)
	if err != nil {
		return resultErr(fmt.Errorf("get_table_info: %w", err)), nil
	}
	n, err := s.db.RowCount(ctx, table)
	if err != nil {
		return resultErr(fmt.Errorf("get_table_info: %w", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Table: %s\n\n", dbase.DecodeName(table))
	fmt.Fprintf(&b, "**Rows**: %s\n\n", humanize.Comma(n))
	b.WriteString("### Columns\n\n```\n")
	rows := make([][]any, 0, len(cols))
	for _, c := range cols {
		def := ""
		if c.Default != nil {
			def = *c.Default
		}
		rows = append(rows, []any{c.Name, c.Type, c.Null, def})
	}
	writeMarkdownTable(&b, []string{"Column", "Type", "Nullable", "Default"}, rows)
	b.WriteString("```")
	return resultText(b.String()), nil
}

// tableList renders all tables with their row counts.
func (s *Server) tableList(ctx context.Context) (*mcplib.CallToolResult, error) {
	tables, err := s.db.Tables(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("get_table_info: %w", err)), nil
	}
	if len(tables) == 0 {
		return resultText("The database has no tables."), nil
	}

	var b strings.Builder
	b.WriteString("## Tables\n\n```\n")
	rows := make([][]any, 0, len(tables))
	for _, t := range tables {
		count := "error"
		if n, err := s.db.RowCount(ctx, t); err == nil {
			count = humanize.Comma(n)
		} else {
			s.logger.WarnContext(ctx, "mcp: row count failed", "table", t, "error", err)
		}
		rows = append(rows, []any{t, count})
	}
	writeMarkdownTable(&b, []string{"Table", "Rows"}, rows)
	b.WriteString("```\n\nPass table_name to get detailed information about a specific table.")
	return resultText(b.String()), nil
}

// ─── rendering helpers ────────────────────────────────────────────────────────

// writeMarkdownTable writes a pipe table with a header separator row.  NULL
// values render as the literal "NULL".
func writeMarkdownTable(b *strings.Builder, columns []string, rows [][]any) {
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(columns)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// formatValue renders a scanned database value as cell text.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// truncate shortens s to at most n bytes for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
