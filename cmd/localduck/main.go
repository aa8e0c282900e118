// Command localduck runs the local database server: an HTTP API for file
// uploads and table CRUD over a single DuckDB file, optionally alongside an
// MCP server exposing the same database to AI agents.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rusq/osenv/v2"
	"golang.org/x/sync/errgroup"

	"github.com/localduck/localduck/internal/dbase"
	"github.com/localduck/localduck/internal/httpapi"
	"github.com/localduck/localduck/internal/mcp"
)

var build = "dev"

// secrets defines the names of the supported secret files that we load our
// environment from.  Inexperienced windows users might have a bad experience
// trying to create a .env file with notepad as it will battle for having the
// "txt" extension.  Let it have it.
var secrets = []string{".env", ".env.txt", "secrets.txt"}

// params is the command line parameters.
type params struct {
	cfgFile      string
	cfg          config
	printVersion bool
	verbose      bool
}

func main() {
	loadSecrets(secrets)

	p, err := parseCmdLine(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if p.printVersion {
		fmt.Println(build)
		return
	}
	initLog(p.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, p); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// initLog sets up the default logger.
func initLog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// run starts the servers and blocks until ctx is cancelled or one of them
// fails.
func run(ctx context.Context, p params) error {
	lg := slog.Default()
	cfg := p.cfg

	db := dbase.New(cfg.Database, dbase.WithLogger(lg))
	if err := db.EnsureExists(ctx); err != nil {
		return err
	}

	api := httpapi.New(httpapi.Config{
		Addr:    cfg.Addr,
		DB:      db,
		Logger:  lg,
		Version: build,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenAndServe(ctx)
	})

	if cfg.MCPTransport != "" && cfg.MCPTransport != "off" {
		srv := mcp.New(db, mcp.WithLogger(lg), mcp.WithQueryLimit(cfg.QueryLimit))
		g.Go(func() error {
			switch strings.ToLower(cfg.MCPTransport) {
			case string(mcp.TransportStdio):
				return srv.ServeStdio(ctx)
			case string(mcp.TransportHTTP):
				return srv.ServeHTTP(ctx, cfg.MCPAddr)
			default:
				return fmt.Errorf("unknown MCP transport %q (expected \"stdio\" or \"http\")", cfg.MCPTransport)
			}
		})
	}

	return g.Wait()
}

// loadSecrets load the environment from the files in the secrets slice.
func loadSecrets(files []string) {
	for _, f := range files {
		godotenv.Load(f)
	}
}

// parseCmdLine parses the command line arguments, applying the optional
// TOML configuration file for any flag the user did not set explicitly.
func parseCmdLine(args []string) (params, error) {
	fs := flag.NewFlagSet("localduck", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"localduck %s\n"+
				"Serves a local DuckDB database file over HTTP (uploads, table CRUD,\n"+
				"queries) and optionally over MCP for AI agents.\n\n"+
				"Usage:  %s [flags]\n\n",
			build, filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	var p params
	fs.StringVar(&p.cfg.Database, "db", osenv.Value("DB_PATH", defConfig.Database), "`path` to the database file (created if absent)")
	fs.StringVar(&p.cfg.Addr, "addr", osenv.Value("ADDR", defConfig.Addr), "HTTP listen `address`")
	fs.StringVar(&p.cfg.MCPTransport, "mcp", osenv.Value("MCP_TRANSPORT", defConfig.MCPTransport), "MCP transport: \"stdio\", \"http\" or \"off\"")
	fs.StringVar(&p.cfg.MCPAddr, "mcp-addr", osenv.Value("MCP_ADDR", defConfig.MCPAddr), "MCP listen `address` when -mcp=http")
	fs.IntVar(&p.cfg.QueryLimit, "limit", osenv.Value("QUERY_LIMIT", defConfig.QueryLimit), "default row `limit` applied to bare SELECT queries")
	fs.StringVar(&p.cfgFile, "config", osenv.Value("CONFIG", ""), "TOML configuration `file`")
	fs.BoolVar(&p.verbose, "v", osenv.Value("DEBUG", false), "verbose messages")
	fs.BoolVar(&p.printVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return p, err
	}

	if p.cfgFile != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := p.cfg.applyFile(p.cfgFile, set); err != nil {
			return p, err
		}
	}
	return p, nil
}
