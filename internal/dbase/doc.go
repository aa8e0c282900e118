// Package dbase is the DuckDB access layer.  It hands out short-lived
// connections to the database file (one per request, no pooling), wraps the
// engine's catalog statements (SHOW TABLES, DESCRIBE, COMMENT ON, ALTER
// TABLE) and executes ad-hoc queries with a default row limit applied to
// bare SELECTs.
//
// Table names stored in the catalog may be percent-encoded (see EncodeName);
// Resolve maps a caller-supplied name in any of its forms to the stored one.
package dbase
