// Package driving defines the ports the CLI, HTTP API, MCP server and TUI
// call into: answering, retrieval, table of contents, indexing and settings.
//
// Implementations live in internal/core/services.
package driving
