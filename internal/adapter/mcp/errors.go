// Package mcp exposes the retrieval engine as MCP tools over stdio or
// streamable HTTP.
package mcp

import "errors"

// ErrMissingEngine is returned when no knowledge engine is provided.
var ErrMissingEngine = errors.New("mcp: knowledge engine is required")
