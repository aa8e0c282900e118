package dbase

// In this file: catalog operations.  Each exported method on Database opens
// its own connection; the *Conn variants operate on a caller-provided
// connection and exist for multi-statement sequences (the import pipeline).

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Column is a single row of DESCRIBE output.
type Column struct {
	Name    string  `db:"column_name" json:"column"`
	Type    string  `db:"column_type" json:"type"`
	Null    string  `db:"null" json:"null"`
	Key     *string `db:"key" json:"key"`
	Default *string `db:"default" json:"default"`
	Extra   *string `db:"extra" json:"extra"`
}

// ColumnMeta is the metadata view of a column: name, type and comment.
type ColumnMeta struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

// TableMeta aggregates everything the metadata endpoint reports about a
// table.
type TableMeta struct {
	Name     string       `json:"table"`
	RowCount int64        `json:"row_count"`
	Comment  string       `json:"table_comment"`
	Columns  []ColumnMeta `json:"columns"`
}

// TablesConn lists the tables visible on conn, in catalog order.
func TablesConn(ctx context.Context, conn sqlx.QueryerContext) ([]string, error) {
	var names []string
	if err := sqlx.SelectContext(ctx, conn, &names, "SHOW TABLES"); err != nil {
		return nil, sqlErr("SHOW TABLES", err)
	}
	return names, nil
}

// DescribeConn returns the column definitions of table.
func DescribeConn(ctx context.Context, conn sqlx.QueryerContext, table string) ([]Column, error) {
	stmt := "DESCRIBE " + QuoteIdent(table)
	var cols []Column
	if err := sqlx.SelectContext(ctx, conn, &cols, stmt); err != nil {
		return nil, sqlErr(stmt, err)
	}
	return cols, nil
}

// RowCountConn returns the number of rows in table.
func RowCountConn(ctx context.Context, conn sqlx.QueryerContext, table string) (int64, error) {
	stmt := "SELECT count(*) FROM " + QuoteIdent(table)
	var n int64
	if err := sqlx.GetContext(ctx, conn, &n, stmt); err != nil {
		return 0, sqlErr(stmt, err)
	}
	return n, nil
}

// TableCommentConn returns the comment on table, or "" if there is none.
func TableCommentConn(ctx context.Context, conn sqlx.QueryerContext, table string) (string, error) {
	const stmt = "SELECT comment FROM duckdb_tables() WHERE table_name = ?"
	var comment *string
	if err := sqlx.GetContext(ctx, conn, &comment, stmt, table); err != nil {
		return "", sqlErr(stmt, err)
	}
	if comment == nil {
		return "", nil
	}
	return *comment, nil
}

// ColumnCommentsConn returns the non-empty column comments of table, keyed
// by column name.
func ColumnCommentsConn(ctx context.Context, conn sqlx.QueryerContext, table string) (map[string]string, error) {
	const stmt = "SELECT column_name, comment FROM duckdb_columns() WHERE table_name = ? AND comment IS NOT NULL"
	rows, err := conn.QueryxContext(ctx, stmt, table)
	if err != nil {
		return nil, sqlErr(stmt, err)
	}
	defer rows.Close()
	comments := make(map[string]string)
	for rows.Next() {
		var name, comment string
		if err := rows.Scan(&name, &comment); err != nil {
			return nil, sqlErr(stmt, err)
		}
		comments[name] = comment
	}
	if err := rows.Err(); err != nil {
		return nil, sqlErr(stmt, err)
	}
	return comments, nil
}

// SetTableCommentConn sets (or clears, with "") the comment on table.
// COMMENT ON is DDL and does not accept bound parameters, hence the inlined
// escaped literal.
func SetTableCommentConn(ctx context.Context, conn sqlx.ExecerContext, table, comment string) error {
	stmt := fmt.Sprintf("COMMENT ON TABLE %s IS %s", QuoteIdent(table), QuoteString(comment))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return sqlErr(stmt, err)
	}
	return nil
}

// SetColumnCommentConn sets the comment on a column of table.
func SetColumnCommentConn(ctx context.Context, conn sqlx.ExecerContext, table, column, comment string) error {
	stmt := fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", QuoteIdent(table), QuoteIdent(column), QuoteString(comment))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return sqlErr(stmt, err)
	}
	return nil
}

// DropConn drops table if it exists.
func DropConn(ctx context.Context, conn sqlx.ExecerContext, table string) error {
	stmt := "DROP TABLE IF EXISTS " + QuoteIdent(table)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return sqlErr(stmt, err)
	}
	return nil
}

// Tables lists all tables in the database.
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	conn, err := d.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return TablesConn(ctx, conn)
}

// Resolve maps a caller-supplied table name to the name stored in the
// catalog.  The literal form, the percent-decoded form and the
// percent-encoded form are checked in that order; the first match wins.
// Returns ErrTableNotFound when nothing matches.
func (d *Database) Resolve(ctx context.Context, name string) (string, error) {
	tables, err := d.Tables(ctx)
	if err != nil {
		return "", err
	}
	candidates := []string{name, DecodeName(name), EncodeName(name)}
	for _, c := range candidates {
		for _, t := range tables {
			if t == c {
				return t, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTableNotFound, name)
}

// Describe returns the column definitions of table.
func (d *Database) Describe(ctx context.Context, table string) ([]Column, error) {
	conn, err := d.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return DescribeConn(ctx, conn, table)
}

// RowCount returns the number of rows in table.
func (d *Database) RowCount(ctx context.Context, table string) (int64, error) {
	conn, err := d.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return RowCountConn(ctx, conn, table)
}

// Rows returns up to limit rows of table.
func (d *Database) Rows(ctx context.Context, table string, limit int) (*Result, error) {
	conn, err := d.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stmt := fmt.Sprintf("SELECT * FROM %s LIMIT %d", QuoteIdent(table), limit)
	return queryConn(ctx, conn, stmt)
}

// Metadata returns the row count, comment, and commented column list of
// table on a single connection.
func (d *Database) Metadata(ctx context.Context, table string) (*TableMeta, error) {
	conn, err := d.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	n, err := RowCountConn(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	cols, err := DescribeConn(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	comment, err := TableCommentConn(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	colComments, err := ColumnCommentsConn(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	meta := &TableMeta{
		Name:     table,
		RowCount: n,
		Comment:  comment,
		Columns:  make([]ColumnMeta, 0, len(cols)),
	}
	for _, c := range cols {
		meta.Columns = append(meta.Columns, ColumnMeta{
			Name:    c.Name,
			Type:    c.Type,
			Comment: colComments[c.Name],
		})
	}
	return meta, nil
}

// SetTableComment sets the comment on table.
func (d *Database) SetTableComment(ctx context.Context, table, comment string) error {
	conn, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return SetTableCommentConn(ctx, conn, table, comment)
}

// SetColumnComment sets the comment on a column of table.
func (d *Database) SetColumnComment(ctx context.Context, table, column, comment string) error {
	conn, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return SetColumnCommentConn(ctx, conn, table, column, comment)
}

// RenameTable renames table to newName.  newName must already be a stored
// (encoded) name.
func (d *Database) RenameTable(ctx context.Context, table, newName string) error {
	conn, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", QuoteIdent(table), QuoteIdent(newName))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return sqlErr(stmt, err)
	}
	return nil
}

// RenameColumn renames a column of table.
func (d *Database) RenameColumn(ctx context.Context, table, column, newName string) error {
	conn, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", QuoteIdent(table), QuoteIdent(column), QuoteIdent(newName))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return sqlErr(stmt, err)
	}
	return nil
}

// Drop drops table if it exists.
func (d *Database) Drop(ctx context.Context, table string) error {
	conn, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return DropConn(ctx, conn, table)
}

// Exists reports whether the exact stored name exists in the catalog.
func (d *Database) Exists(ctx context.Context, table string) (bool, error) {
	tables, err := d.Tables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t == table {
			return true, nil
		}
	}
	return false, nil
}
