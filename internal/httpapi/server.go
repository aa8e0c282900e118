// Package httpapi serves the HTTP face of the database: file upload,
// table/schema/metadata CRUD, ad-hoc row queries and a database download.
// Every handler opens its own database connection (through the dbase layer)
// and maps the typed dbase errors to transport status codes in one place.
package httpapi

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/localduck/localduck/internal/dbase"
	"github.com/localduck/localduck/internal/importer"
)

// defRowLimit caps GET /query/{table} when no limit parameter is given.
const defRowLimit = 10

// Config carries everything the server needs; there is no package-level
// state.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// DB is the database the endpoints operate on.
	DB *dbase.Database
	// Logger is used for request-scoped logging; nil means slog.Default().
	Logger *slog.Logger
	// Version is reported by the health endpoint.
	Version string
}

// Server is the HTTP API server.
type Server struct {
	db      *dbase.Database
	imp     *importer.Importer
	srv     *http.Server
	lg      *slog.Logger
	version string
}

// New creates the server with all routes registered.  Call ListenAndServe
// to start it.
func New(cfg Config) *Server {
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	s := &Server{
		db:      cfg.DB,
		imp:     importer.New(cfg.DB, importer.WithLogger(lg)),
		lg:      lg,
		version: cfg.Version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.uploadHandler)
	mux.HandleFunc("GET /tables", s.tablesHandler)
	mux.HandleFunc("GET /query/{table}", s.queryHandler)
	mux.HandleFunc("GET /table/{table}/schema", s.schemaHandler)
	mux.HandleFunc("GET /table/{table}/metadata", s.metadataHandler)
	mux.HandleFunc("PUT /table/{table}/comment", s.tableCommentHandler)
	mux.HandleFunc("PUT /table/{table}/column/{col}/comment", s.columnCommentHandler)
	mux.HandleFunc("PUT /table/{table}/column/{col}", s.renameColumnHandler)
	mux.HandleFunc("PUT /table/{table}/rename", s.renameTableHandler)
	mux.HandleFunc("DELETE /table/{table}", s.deleteHandler)
	mux.HandleFunc("GET /download/database", s.downloadHandler)
	mux.HandleFunc("GET /health", s.healthHandler)

	// Request logs go to stderr: stdout belongs to the MCP stdio transport
	// when both servers run in the same process.
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(os.Stderr, "", log.LstdFlags),
		NoColor: true,
	})
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           requestLogger(middleware.Recoverer(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		sdctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(sdctx); err != nil {
			s.lg.Error("http server shutdown", "error", err)
		}
	}()
	s.lg.InfoContext(ctx, "http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
