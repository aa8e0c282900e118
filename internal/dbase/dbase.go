package dbase

// In this file: Database handle construction and per-request connections.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
)

// Driver is the database/sql driver name registered by go-duckdb.
const Driver = "duckdb"

// Database gives access to a single DuckDB database file.  It holds no open
// connections: every operation opens its own connection and closes it before
// returning, so concurrent writers are governed by the engine's own file
// locking only.
type Database struct {
	path string
	lg   *slog.Logger
}

// Option is a functional option for New.
type Option func(*Database)

// WithLogger sets the logger.  A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(d *Database) {
		if lg != nil {
			d.lg = lg
		}
	}
}

// New creates a Database for the file at path.  The file is not touched
// until the first operation; call EnsureExists to create it eagerly.
func New(path string, opt ...Option) *Database {
	d := &Database{
		path: path,
		lg:   slog.Default(),
	}
	for _, o := range opt {
		o(d)
	}
	return d
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Connect opens a new connection to the database file.  The caller must
// close it.
func (d *Database) Connect(ctx context.Context) (*sqlx.DB, error) {
	conn, err := sqlx.Open(Driver, d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, d.path, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, d.path, err)
	}
	return conn, nil
}

// EnsureExists creates the database file (and its parent directory) if it
// does not exist yet, so that read-only endpoints work on first run.
func (d *Database) EnsureExists(ctx context.Context) error {
	if _, err := os.Stat(d.path); err == nil {
		return nil
	}
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	conn, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	d.lg.InfoContext(ctx, "created empty database", "path", d.path)
	return conn.Close()
}
