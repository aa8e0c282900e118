package dbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "users", `"users"`},
		{"embedded double quote", `us"ers`, `"us""ers"`},
		{"injection attempt", `t"; DROP TABLE x; --`, `"t""; DROP TABLE x; --"`},
		{"semicolons stay inert", "a;b", `"a;b"`},
		{"unicode", "売上", `"売上"`},
		{"empty", "", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdent(tt.in))
		})
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", `'hello'`},
		{"embedded single quote", "it's", `'it''s'`},
		{"injection attempt", "x'); DROP TABLE t; --", `'x''); DROP TABLE t; --'`},
		{"empty", "", `''`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteString(tt.in))
		})
	}
}

func TestEncodeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain identifier unchanged", "sales_2024", "sales_2024"},
		{"unreserved punctuation kept", "a-b.c~d", "a-b.c~d"},
		{"space encoded", "my table", "my%20table"},
		{"plus encoded, not space", "a+b", "a%2Bb"},
		{"japanese", "売上", "%E5%A3%B2%E4%B8%8A"},
		{"percent sign itself", "100%", "100%25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeName(tt.in))
		})
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no escapes", "sales_2024", "sales_2024"},
		{"space", "my%20table", "my table"},
		{"japanese", "%E5%A3%B2%E4%B8%8A", "売上"},
		{"lowercase hex", "my%2btable", "my+table"},
		{"malformed sequence kept verbatim", "50%zz", "50%zz"},
		{"trailing percent kept", "x%", "x%"},
		{"plus is not a space", "a+b", "a+b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeName(tt.in))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "with space", "売上データ", "mixed 値+%", "file.name-v2~x"} {
		assert.Equal(t, s, DecodeName(EncodeName(s)), "round-trip of %q", s)
	}
}
