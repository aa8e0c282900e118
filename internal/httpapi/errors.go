package httpapi

// In this file: the single place where typed dbase/textenc errors become
// transport responses.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/localduck/localduck/internal/dbase"
	"github.com/localduck/localduck/internal/textenc"
)

// errorResponse is the structured error payload of every failing endpoint.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps err to a status code and error class and writes the JSON
// error payload.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, class := http.StatusInternalServerError, "internal"
	msg := err.Error()
	switch {
	case errors.Is(err, textenc.ErrUnsupportedEncoding):
		code, class = http.StatusBadRequest, "unsupported_encoding"
		msg = fmt.Sprintf("the file character encoding is not supported; save the file as one of: %s",
			strings.Join(textenc.Supported, ", "))
	case errors.Is(err, dbase.ErrUnsupportedFileType):
		code, class = http.StatusBadRequest, "unsupported_file_type"
	case errors.Is(err, dbase.ErrTableNotFound):
		code, class = http.StatusNotFound, "table_not_found"
	case errors.Is(err, dbase.ErrNoColumns):
		code, class = http.StatusBadRequest, "no_columns"
	case errors.Is(err, dbase.ErrNoRows):
		code, class = http.StatusBadRequest, "no_rows"
	case errors.Is(err, dbase.ErrConnect):
		code, class = http.StatusServiceUnavailable, "connection_failure"
	}
	if code == http.StatusInternalServerError {
		var sqlerr *dbase.SQLError
		if errors.As(err, &sqlerr) {
			class = "sql_error"
		}
	}
	s.lg.ErrorContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	writeJSON(w, code, errorResponse{Error: class, Message: msg})
}

// badRequest writes a 400 with the given message.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.lg.WarnContext(r.Context(), "bad request", "path", r.URL.Path, "message", msg)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: msg})
}
