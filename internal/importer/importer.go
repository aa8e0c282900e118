// Package importer implements the file import pipeline: an uploaded file is
// decoded (text formats), staged to a request-scoped temporary file, loaded
// into the database through the engine's tabular reader or a cross-database
// copy, validated, and dropped again if validation fails.  Temporary files
// are removed on every exit path.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/localduck/localduck/internal/dbase"
	"github.com/localduck/localduck/internal/textenc"
)

// Importer loads uploaded files into the database.
type Importer struct {
	db *dbase.Database
	lg *slog.Logger
}

// Option is a functional option for New.
type Option func(*Importer)

// WithLogger sets the logger.  A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(im *Importer) {
		if lg != nil {
			im.lg = lg
		}
	}
}

// New creates an Importer writing to db.
func New(db *dbase.Database, opt ...Option) *Importer {
	im := &Importer{
		db: db,
		lg: slog.Default(),
	}
	for _, o := range opt {
		o(im)
	}
	return im
}

// Summary describes the outcome of a successful import.
type Summary struct {
	// TableName is the stored (catalog) name of the created table, or
	// "imported_database" for a database dump upload.
	TableName string
	// OriginalName is the human-readable name derived from the file name.
	OriginalName string
	// Encoding is the text encoding that matched, empty for binary uploads.
	Encoding string
	// RowCount is the number of data rows in the created table.  For a
	// dump upload it is the number of tables in the database afterwards.
	RowCount int64
	// ImportedTables lists all tables after a dump import; nil otherwise.
	ImportedTables []string
}

// Import loads the uploaded content into the database.  The file format is
// selected by the extension of filename: .csv and .tsv go through the
// tabular path, .duckdb through the cross-database copy.  Anything else
// fails with dbase.ErrUnsupportedFileType.
func (im *Importer) Import(ctx context.Context, filename string, content []byte) (*Summary, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	switch ext {
	case ".csv":
		return im.importTabular(ctx, stem, content, false)
	case ".tsv":
		return im.importTabular(ctx, stem, content, true)
	case ".duckdb":
		return im.importDump(ctx, content)
	default:
		return nil, fmt.Errorf("%w (got %q)", dbase.ErrUnsupportedFileType, ext)
	}
}

// importTabular stages decoded text to a temporary CSV file and creates (or
// replaces) a table from it with the engine's auto-detecting reader.
func (im *Importer) importTabular(ctx context.Context, stem string, content []byte, tsv bool) (*Summary, error) {
	text, encName, err := textenc.Decode(content)
	if err != nil {
		return nil, err
	}

	table, generated := safeName(stem)

	tmp, err := stage(text, "*.csv")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	conn, err := im.db.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		dbase.QuoteIdent(table), dbase.QuoteString(tmp))
	if tsv {
		stmt = fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, delim='\t')`,
			dbase.QuoteIdent(table), dbase.QuoteString(tmp))
	}
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("create table %q: %w", table, err)
	}

	n, err := im.validate(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	if generated {
		// Preserve the human-readable name so lookups can display it.
		if err := dbase.SetTableCommentConn(ctx, conn, table, stem); err != nil {
			im.lg.WarnContext(ctx, "failed to store original table name", "table", table, "error", err)
		}
	}

	im.lg.InfoContext(ctx, "table imported", "table", table, "rows", n, "encoding", encName)
	return &Summary{
		TableName:    table,
		OriginalName: stem,
		Encoding:     encName,
		RowCount:     n,
	}, nil
}

// validate rejects a freshly created table with zero columns or zero rows,
// dropping it before returning so a failed import leaves nothing behind.
func (im *Importer) validate(ctx context.Context, conn *sqlx.DB, table string) (int64, error) {
	cols, err := dbase.DescribeConn(ctx, conn, table)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		if derr := dbase.DropConn(ctx, conn, table); derr != nil {
			im.lg.WarnContext(ctx, "cleanup drop failed", "table", table, "error", derr)
		}
		return 0, fmt.Errorf("table %q: %w", table, dbase.ErrNoColumns)
	}
	n, err := dbase.RowCountConn(ctx, conn, table)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if derr := dbase.DropConn(ctx, conn, table); derr != nil {
			im.lg.WarnContext(ctx, "cleanup drop failed", "table", table, "error", derr)
		}
		return 0, fmt.Errorf("table %q: %w", table, dbase.ErrNoRows)
	}
	return n, nil
}

// attachAlias is the alias the source database is attached under during a
// dump import.
const attachAlias = "import_src"

// importDump stages the uploaded database file and copies every table from
// it into the main database, replacing tables with the same name.  Table
// and column comments are copied best-effort afterwards.
func (im *Importer) importDump(ctx context.Context, content []byte) (*Summary, error) {
	tmp, err := stageBytes(content, "*.duckdb")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	// Enumerate the source tables through a separate handle on the staged
	// file.
	src := dbase.New(tmp, dbase.WithLogger(im.lg))
	srcTables, err := src.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("read uploaded database: %w", err)
	}

	conn, err := im.db.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	for _, table := range srcTables {
		if err := im.copyTable(ctx, conn, tmp, table); err != nil {
			// Abort: drop the partially created table and stop.
			if derr := dbase.DropConn(ctx, conn, table); derr != nil {
				im.lg.WarnContext(ctx, "cleanup drop failed", "table", table, "error", derr)
			}
			return nil, fmt.Errorf("copy table %q: %w", table, err)
		}
		im.copyComments(ctx, conn, src, table)
	}

	imported, err := dbase.TablesConn(ctx, conn)
	if err != nil {
		return nil, err
	}
	im.lg.InfoContext(ctx, "database imported", "tables", len(srcTables))
	return &Summary{
		TableName:      "imported_database",
		RowCount:       int64(len(imported)),
		ImportedTables: imported,
	}, nil
}

// copyTable replaces table in the main database with the copy from the
// staged file at path.  ATTACH is the primary mechanism; engines built
// without it fall back to a direct cross-file reference.
func (im *Importer) copyTable(ctx context.Context, conn *sqlx.DB, path, table string) error {
	if err := dbase.DropConn(ctx, conn, table); err != nil {
		return err
	}

	attach := fmt.Sprintf("ATTACH %s AS %s (READ_ONLY)", dbase.QuoteString(path), attachAlias)
	if _, err := conn.ExecContext(ctx, attach); err != nil {
		im.lg.WarnContext(ctx, "attach failed, trying direct copy", "table", table, "error", err)
		direct := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s.%s",
			dbase.QuoteIdent(table), dbase.QuoteString(path), dbase.QuoteIdent(table))
		if _, err := conn.ExecContext(ctx, direct); err != nil {
			return err
		}
		return nil
	}
	// Detach regardless of how the copy goes; a lingering attachment would
	// hold a lock on the staged file past its removal.
	defer conn.ExecContext(ctx, "DETACH "+attachAlias)

	stmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s.%s",
		dbase.QuoteIdent(table), attachAlias, dbase.QuoteIdent(table))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return err
	}
	return nil
}

// copyComments copies table- and column-level comments from the source
// database.  Comment loss is logged, never fatal: the data copy has already
// succeeded.
func (im *Importer) copyComments(ctx context.Context, conn *sqlx.DB, src *dbase.Database, table string) {
	srcConn, err := src.Connect(ctx)
	if err != nil {
		im.lg.WarnContext(ctx, "cannot read source comments", "table", table, "error", err)
		return
	}
	defer srcConn.Close()

	if comment, err := dbase.TableCommentConn(ctx, srcConn, table); err != nil {
		im.lg.WarnContext(ctx, "failed to read table comment", "table", table, "error", err)
	} else if comment != "" {
		if err := dbase.SetTableCommentConn(ctx, conn, table, comment); err != nil {
			im.lg.WarnContext(ctx, "failed to copy table comment", "table", table, "error", err)
		}
	}

	colComments, err := dbase.ColumnCommentsConn(ctx, srcConn, table)
	if err != nil {
		im.lg.WarnContext(ctx, "failed to read column comments", "table", table, "error", err)
		return
	}
	for col, comment := range colComments {
		if err := dbase.SetColumnCommentConn(ctx, conn, table, col, comment); err != nil {
			im.lg.WarnContext(ctx, "failed to copy column comment", "table", table, "column", col, "error", err)
		}
	}
}

// stage writes text to a new temporary file and returns its path.
func stage(text string, pattern string) (string, error) {
	return stageBytes([]byte(text), pattern)
}

// stageBytes writes b to a new temporary file and returns its path.  The
// caller removes the file.
func stageBytes(b []byte, pattern string) (string, error) {
	f, err := os.CreateTemp("", "localduck-"+pattern)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return f.Name(), nil
}
