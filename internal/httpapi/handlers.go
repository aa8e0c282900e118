package httpapi

// In this file: the endpoint handlers.  Each one is a thin pass-through to
// the dbase layer; name resolution happens up front so callers may supply
// either the stored or the human-readable table name.

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/localduck/localduck/internal/dbase"
)

// maxUploadMemory is the in-memory threshold for multipart parsing; larger
// bodies spill to disk.
const maxUploadMemory = 32 << 20 // 32 MB

type uploadResponse struct {
	Message        string   `json:"message"`
	TableName      string   `json:"table_name"`
	OriginalName   string   `json:"original_table_name,omitempty"`
	RowCount       int64    `json:"row_count"`
	Encoding       string   `json:"encoding,omitempty"`
	ImportedTables []string `json:"imported_tables,omitempty"`
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.badRequest(w, r, "expected a multipart form with a 'file' field")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, "missing 'file' field")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	sum, err := s.imp.Import(r.Context(), hdr.Filename, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:        fmt.Sprintf("file %q imported successfully", hdr.Filename),
		TableName:      sum.TableName,
		OriginalName:   sum.OriginalName,
		RowCount:       sum.RowCount,
		Encoding:       sum.Encoding,
		ImportedTables: sum.ImportedTables,
	})
}

type tableEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (s *Server) tablesHandler(w http.ResponseWriter, r *http.Request) {
	tables, err := s.db.Tables(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries := make([]tableEntry, 0, len(tables))
	for _, t := range tables {
		entries = append(entries, tableEntry{Name: t, DisplayName: dbase.DecodeName(t)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": entries})
}

func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	limit := defRowLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.badRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}
	res, err := s.db.Rows(r.Context(), table, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		m := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			m[col] = jsonValue(row[i])
		}
		data = append(data, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "data": data, "limit": limit})
}

func (s *Server) schemaHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	cols, err := s.db.Describe(r.Context(), table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "schema": cols})
}

func (s *Server) metadataHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	meta, err := s.db.Metadata(r.Context(), table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	meta.Name = table
	writeJSON(w, http.StatusOK, meta)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (s *Server) tableCommentHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: expected {\"comment\": ...}")
		return
	}
	if err := s.db.SetTableComment(r.Context(), table, req.Comment); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("comment on table %q updated", table),
		"comment": req.Comment,
	})
}

func (s *Server) columnCommentHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	col := r.PathValue("col")
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: expected {\"comment\": ...}")
		return
	}
	if err := s.db.SetColumnComment(r.Context(), table, col, req.Comment); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("comment on column %q updated", col),
		"comment": req.Comment,
	})
}

type renameRequest struct {
	NewName string `json:"new_name"`
}

func (s *Server) renameColumnHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	col := r.PathValue("col")
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		s.badRequest(w, r, "invalid JSON body: expected {\"new_name\": ...}")
		return
	}
	if err := s.db.RenameColumn(r.Context(), table, col, req.NewName); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("column %q renamed to %q", col, req.NewName),
	})
}

func (s *Server) renameTableHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		s.badRequest(w, r, "invalid JSON body: expected {\"new_name\": ...}")
		return
	}
	stored := dbase.EncodeName(req.NewName)
	if err := s.db.RenameTable(r.Context(), table, stored); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    fmt.Sprintf("table %q renamed to %q", table, stored),
		"table_name": stored,
	})
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	table, ok := s.resolveParam(w, r)
	if !ok {
		return
	}
	if err := s.db.Drop(r.Context(), table); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("table %q deleted", table),
	})
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	path := s.db.Path()
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "database file does not exist yet",
		})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="database.duckdb"`)
	http.ServeFile(w, r, path)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "localduck",
		"version": s.version,
	})
}

// resolveParam resolves the {table} path parameter against the catalog and
// writes the error response itself when resolution fails.
func (s *Server) resolveParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("table")
	if name == "" {
		s.badRequest(w, r, "table name is required")
		return "", false
	}
	table, err := s.db.Resolve(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	return table, true
}

// jsonValue converts a scanned database value into something that marshals
// cleanly ([]byte would otherwise become base64).
func jsonValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
