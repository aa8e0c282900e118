package main

// In this file: the configuration structure and the TOML file overlay.

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// config carries all runtime settings.  Flag values win over the
// configuration file, the file wins over the built-in defaults.
type config struct {
	Database     string `toml:"database"`
	Addr         string `toml:"addr"`
	MCPTransport string `toml:"mcp_transport"`
	MCPAddr      string `toml:"mcp_addr"`
	QueryLimit   int    `toml:"query_limit"`
}

// defConfig is the built-in defaults.
var defConfig = config{
	Database:     "data/database.duckdb",
	Addr:         ":8080",
	MCPTransport: "off",
	MCPAddr:      "127.0.0.1:8483",
	QueryLimit:   100,
}

// applyFile overlays values from the TOML file at path onto c, skipping any
// field whose flag was set explicitly on the command line (set holds the
// flag names).
func (c *config) applyFile(path string, set map[string]bool) error {
	var file config
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if !set["db"] && file.Database != "" {
		c.Database = file.Database
	}
	if !set["addr"] && file.Addr != "" {
		c.Addr = file.Addr
	}
	if !set["mcp"] && file.MCPTransport != "" {
		c.MCPTransport = file.MCPTransport
	}
	if !set["mcp-addr"] && file.MCPAddr != "" {
		c.MCPAddr = file.MCPAddr
	}
	if !set["limit"] && file.QueryLimit > 0 {
		c.QueryLimit = file.QueryLimit
	}
	return nil
}
