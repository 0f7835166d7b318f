package mcp

import (
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ranks chunks for the search tool.
	Retrieval driving.RetrievalService

	// Answer generates grounded answers. Optional: without a configured
	// provider the ask tool reports ErrAnswerUnavailable.
	Answer driving.AnswerService

	// TOC exposes tables of contents. Optional.
	TOC driving.TOCService

	// Catalog lists the indexed books. Optional.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
