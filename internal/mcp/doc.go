// Package mcp implements the Model Context Protocol (MCP) server for the
// local database.  It exposes the DuckDB file through two tools that AI
// agents can call: execute_query runs ad-hoc SQL and get_table_info
// inspects the catalog.  Results are returned as Markdown tables in text.
//
// Transport: the server supports two transports selectable at runtime:
//   - stdio  – standard MCP stdio transport (default); suitable for local
//     agent integration (e.g. Claude Desktop, VS Code Copilot).
//   - http   – Streamable HTTP transport; suitable for remote agents or
//     when multiple concurrent clients are needed.
package mcp
