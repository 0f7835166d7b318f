// Package mcp provides an MCP (Model Context Protocol) server adapter for tutor.
// It lets AI assistants ask grounded questions, search chunks and read the
// table of contents of an indexed textbook.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// ErrAnswerUnavailable is returned by the ask tool when no provider is configured.
var ErrAnswerUnavailable = errors.New("mcp: answer service not configured")
