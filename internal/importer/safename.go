package importer

// In this file: safe table name derivation from uploaded file names.

import (
	"crypto/rand"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/localduck/localduck/internal/dbase"
)

// generatedPrefix is the prefix of substituted table names.
const generatedPrefix = "table_"

// safeName derives the stored table name from a file name stem.  An ASCII
// stem is kept (percent-encoded, which is a no-op for plain identifiers);
// anything else is replaced with a generated name, and the caller is
// expected to preserve the original as the table comment.  The random
// suffix keeps two uploads within the same second from colliding.
func safeName(stem string) (name string, generated bool) {
	if isASCII(stem) {
		return dbase.EncodeName(stem), false
	}
	var suffix [2]byte
	rand.Read(suffix[:])
	return fmt.Sprintf("%s%s_%x", generatedPrefix, time.Now().Format("20060102150405"), suffix), true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
