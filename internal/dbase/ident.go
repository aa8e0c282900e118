package dbase

// In this file: SQL identifier/string escaping and the percent-encoding used
// for stored table names.  All identifier inlining in the repo goes through
// QuoteIdent/QuoteString; there is no other string-built SQL.

import (
	"strings"
)

// QuoteIdent returns s as a double-quoted SQL identifier with embedded
// double quotes doubled.  DuckDB has no bound identifiers, so this is the
// single place where identifiers are made safe for inlining.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteString returns s as a single-quoted SQL string literal with embedded
// single quotes doubled.  Used only where the engine rejects bound
// parameters (DDL such as COMMENT ON, and file paths in table functions).
func QuoteString(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

// upperhex is the alphabet for percent-encoding.
const upperhex = "0123456789ABCDEF"

// unreserved reports whether c may stay unescaped in a stored table name.
// The set matches RFC 3986 unreserved characters plus underscore, which is
// what the catalog historically contains.
func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

// EncodeName percent-encodes every byte of s outside the unreserved set.
// The result is always a safe ASCII identifier; decoding it with DecodeName
// restores the original name.
func EncodeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

// DecodeName reverses EncodeName.  Malformed percent sequences are kept
// verbatim rather than rejected, because stored names are not guaranteed to
// be encoded at all.
func DecodeName(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
