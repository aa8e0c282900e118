package dbase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB creates a Database over a fresh file in a temporary directory.
func testDB(t *testing.T) *Database {
	t.Helper()
	d := New(filepath.Join(t.TempDir(), "test.duckdb"))
	require.NoError(t, d.EnsureExists(t.Context()))
	return d
}

// mustExec runs stmt on a fresh connection.
func mustExec(t *testing.T, d *Database, stmt string) {
	t.Helper()
	conn, err := d.Connect(t.Context())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(t.Context(), stmt)
	require.NoError(t, err, "exec %s", stmt)
}

func TestEnsureExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "db.duckdb")
	d := New(path)
	require.NoError(t, d.EnsureExists(t.Context()))
	_, err := os.Stat(path)
	require.NoError(t, err, "database file must exist after EnsureExists")

	// Second call is a no-op.
	require.NoError(t, d.EnsureExists(t.Context()))
}

func TestConnect_badPath(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "no", "such", "dir", "db.duckdb"))
	_, err := d.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
}

func TestTables(t *testing.T) {
	d := testDB(t)

	tables, err := d.Tables(t.Context())
	require.NoError(t, err)
	assert.Empty(t, tables)

	mustExec(t, d, "CREATE TABLE alpha (a INTEGER)")
	mustExec(t, d, "CREATE TABLE beta (b VARCHAR)")

	tables, err = d.Tables(t.Context())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, tables)
}

func TestDescribe(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE t (id INTEGER NOT NULL, name VARCHAR)")

	cols, err := d.Describe(t.Context(), "t")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "INTEGER", cols[0].Type)
	assert.Equal(t, "NO", cols[0].Null)
	assert.Equal(t, "name", cols[1].Name)
	assert.Equal(t, "VARCHAR", cols[1].Type)
	assert.Equal(t, "YES", cols[1].Null)
}

func TestRowCount(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE t AS SELECT * FROM range(7)")

	n, err := d.RowCount(t.Context(), "t")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestRows(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE t AS SELECT range AS n FROM range(30)")

	res, err := d.Rows(t.Context(), "t", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Len(t, res.Rows, 5)
}

func TestComments(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE t (a INTEGER, b VARCHAR)")

	// No comment initially.
	comment, err := func() (string, error) {
		conn, err := d.Connect(t.Context())
		require.NoError(t, err)
		defer conn.Close()
		return TableCommentConn(t.Context(), conn, "t")
	}()
	require.NoError(t, err)
	assert.Empty(t, comment)

	require.NoError(t, d.SetTableComment(t.Context(), "t", "it's a table"))
	require.NoError(t, d.SetColumnComment(t.Context(), "t", "a", "first"))

	meta, err := d.Metadata(t.Context(), "t")
	require.NoError(t, err)
	assert.Equal(t, "it's a table", meta.Comment)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "first", meta.Columns[0].Comment)
	assert.Empty(t, meta.Columns[1].Comment)
}

func TestRename(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE old (a INTEGER)")

	require.NoError(t, d.RenameTable(t.Context(), "old", "new"))
	tables, err := d.Tables(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, tables)

	require.NoError(t, d.RenameColumn(t.Context(), "new", "a", "b"))
	cols, err := d.Describe(t.Context(), "new")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "b", cols[0].Name)
}

func TestDrop(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE t (a INTEGER)")

	require.NoError(t, d.Drop(t.Context(), "t"))
	tables, err := d.Tables(t.Context())
	require.NoError(t, err)
	assert.Empty(t, tables)

	// Dropping a missing table is not an error (IF EXISTS).
	require.NoError(t, d.Drop(t.Context(), "t"))
}

func TestResolve(t *testing.T) {
	d := testDB(t)
	// A stored percent-encoded name, as the importer would create it.
	mustExec(t, d, `CREATE TABLE "my%20data" (a INTEGER)`)
	mustExec(t, d, "CREATE TABLE plain (a INTEGER)")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"literal stored name", "my%20data", "my%20data", false},
		{"decoded form resolves", "my data", "my%20data", false},
		{"plain literal", "plain", "plain", false},
		{"unknown", "nope", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Resolve(t.Context(), tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrTableNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExists(t *testing.T) {
	d := testDB(t)
	mustExec(t, d, "CREATE TABLE t (a INTEGER)")

	ok, err := d.Exists(t.Context(), "t")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Exists(t.Context(), "u")
	require.NoError(t, err)
	assert.False(t, ok)
}
