package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localduck/localduck/internal/dbase"
)

// testServer creates a Server over a fresh database file.
func testServer(t *testing.T) (*Server, *dbase.Database) {
	t.Helper()
	db := dbase.New(filepath.Join(t.TempDir(), "test.duckdb"))
	require.NoError(t, db.EnsureExists(t.Context()))
	s := New(Config{Addr: ":0", DB: db, Version: "test"})
	return s, db
}

// do runs req against the server and decodes the JSON response body into v
// (if v is non-nil).
func do(t *testing.T, s *Server, req *http.Request, v any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v),
			"body: %s", rec.Body.String())
	}
	return rec
}

// multipartBody builds a multipart form with a single file field.
func multipartBody(t *testing.T, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, s *Server, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartBody(t, filename, content)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)

	var resp map[string]any
	rec := do(t, s, httptest.NewRequest("GET", "/health", nil), &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "localduck", resp["service"])
}

func TestUpload_csv(t *testing.T) {
	s, db := testServer(t)

	rec := upload(t, s, "cities.csv", []byte("name,population\nTokyo,37400068\nOsaka,19281000\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cities", resp.TableName)
	assert.EqualValues(t, 2, resp.RowCount)

	n, err := db.RowCount(t.Context(), "cities")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestUpload_headerOnlyCSV(t *testing.T) {
	s, db := testServer(t)

	rec := upload(t, s, "empty.csv", []byte("a,b\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no_rows", resp.Error)

	tables, err := db.Tables(t.Context())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestUpload_unsupportedEncoding(t *testing.T) {
	s, _ := testServer(t)

	rec := upload(t, s, "bad.csv", []byte{0x80, 0x81})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unsupported_encoding", resp.Error)
	assert.Contains(t, resp.Message, "UTF-8")
	assert.Contains(t, resp.Message, "Shift_JIS")
}

func TestUpload_unsupportedFileType(t *testing.T) {
	s, _ := testServer(t)

	rec := upload(t, s, "report.xlsx", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unsupported_file_type", resp.Error)
}

func TestUpload_missingFile(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest("POST", "/upload", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTables(t *testing.T) {
	s, _ := testServer(t)
	upload(t, s, "my data.csv", []byte("a\n1\n"))

	var resp struct {
		Tables []tableEntry `json:"tables"`
	}
	rec := do(t, s, httptest.NewRequest("GET", "/tables", nil), &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, "my%20data", resp.Tables[0].Name)
	assert.Equal(t, "my data", resp.Tables[0].DisplayName)
}

func TestQuery(t *testing.T) {
	s, _ := testServer(t)
	upload(t, s, "nums.csv", []byte("n\n1\n2\n3\n4\n5\n"))

	var resp struct {
		Table string           `json:"table"`
		Data  []map[string]any `json:"data"`
		Limit int              `json:"limit"`
	}
	rec := do(t, s, httptest.NewRequest("GET", "/query/nums?limit=3", nil), &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nums", resp.Table)
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, 3, resp.Limit)
}

func TestQuery_badLimit(t *testing.T) {
	s, _ := testServer(t)
	upload(t, s, "t.csv", []byte("a\n1\n"))

	rec := do(t, s, httptest.NewRequest("GET", "/query/t?limit=zero", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_notFound(t *testing.T) {
	s, _ := testServer(t)

	var resp errorResponse
	rec := do(t, s, httptest.NewRequest("GET", "/query/missing", nil), &resp)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "table_not_found", resp.Error)
}

func TestSchema(t *testing.T) {
	s, _ := testServer(t)
	upload(t, s, "t.csv", []byte("id,name\n1,x\n"))

	var resp struct {
		Table  string         `json:"table"`
		Schema []dbase.Column `json:"schema"`
	}
	rec := do(t, s, httptest.NewRequest("GET", "/table/t/schema", nil), &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Schema, 2)
	assert.Equal(t, "id", resp.Schema[0].Name)
}

func TestMetadata_resolvesEncodedName(t *testing.T) {
	s, _ := testServer(t)
	upload(t, s, "my data.csv", []byte("a\n1\n"))

	// Decoded and encoded forms must both resolve.
	for _, path := range []string{"/table/my%20data/metadata", "/table/my%2520data/metadata"} {
		var meta dbase.TableMeta
		rec := do(t, s, httptest.NewRequest("GET", path, nil), &meta)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
		assert.Equal(t, "my%20data", meta.Name)
		assert.EqualValues(t, 1, meta.RowCount)
	}
}

func TestTableComment(t *testing.T) {
	s, db := testServer(t)
	upload(t, s, "t.csv", []byte("a\n1\n"))

	body := strings.NewReader(`{"comment": "quarterly sales"}`)
	rec := do(t, s, httptest.NewRequest("PUT", "/table/t/comment", body), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	meta, err := db.Metadata(t.Context(), "t")
	require.NoError(t, err)
	assert.Equal(t, "quarterly sales", meta.Comment)
}

func TestColumnComment(t *testing.T) {
	s, db := testServer(t)
	upload(t, s, "t.csv", []byte("a,b\n1,2\n"))

	body := strings.NewReader(`{"comment": "primary key"}`)
	rec := do(t, s, httptest.NewRequest("PUT", "/table/t/column/a/comment", body), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	meta, err := db.Metadata(t.Context(), "t")
	require.NoError(t, err)
	assert.Equal(t, "primary key", meta.Columns[0].Comment)
}

func TestRenameColumn(t *testing.T) {
	s, db := testServer(t)
	upload(t, s, "t.csv", []byte("a\n1\n"))

	body := strings.NewReader(`{"new_name": "amount"}`)
	rec := do(t, s, httptest.NewRequest("PUT", "/table/t/column/a", body), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	cols, err := db.Describe(t.Context(), "t")
	require.NoError(t, err)
	assert.Equal(t, "amount", cols[0].Name)
}

func TestRenameTable(t *testing.T) {
	s, db := testServer(t)
	upload(t, s, "old.csv", []byte("a\n1\n"))

	body := strings.NewReader(`{"new_name": "fresh"}`)
	rec := do(t, s, httptest.NewRequest("PUT", "/table/old/rename", body), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	tables, err := db.Tables(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, tables)
}

func TestDelete(t *testing.T) {
	s, db := testServer(t)
	upload(t, s, "t.csv", []byte("a\n1\n"))

	rec := do(t, s, httptest.NewRequest("DELETE", "/table/t", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	tables, err := db.Tables(t.Context())
	require.NoError(t, err)
	assert.Empty(t, tables)

	// Deleting again: the name no longer resolves.
	rec = do(t, s, httptest.NewRequest("DELETE", "/table/t", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload(t *testing.T) {
	s, _ := testServer(t)

	rec := do(t, s, httptest.NewRequest("GET", "/download/database", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "database.duckdb")
	assert.NotZero(t, rec.Body.Len())
}
