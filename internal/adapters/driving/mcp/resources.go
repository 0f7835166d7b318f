package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for tutor resources.
	uriScheme = "tutor://"

	booksURI = uriScheme + "books"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{bookId}/toc",
		Name:        "book-toc",
		Description: "Table of contents of an indexed textbook",
		MIMEType:    "application/json",
	}, s.handleTOCResource)

	if s.ports.Catalog != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         booksURI,
			Name:        "books",
			Description: "IDs of the indexed textbooks",
			MIMEType:    "application/json",
		}, s.handleBooksResource)
	}
}

// handleBooksResource lists the indexed books.
func (s *Server) handleBooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	books, err := s.ports.Catalog.Books(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	if books == nil {
		books = []string{}
	}

	data, err := json.Marshal(books)
	if err != nil {
		return nil, fmt.Errorf("marshalling books: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleTOCResource returns the table of contents of a collection.
func (s *Server) handleTOCResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.TOC == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract bookId from URI: tutor://books/{bookId}/toc
	bookID := extractBookID(req.Params.URI)
	if bookID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	toc, err := s.ports.TOC.TOC(ctx, bookID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading toc: %w", err)
	}

	data, err := json.MarshalIndent(toc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling toc: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractBookID extracts the book ID from a URI like tutor://books/{bookId}/toc.
func extractBookID(uri string) string {
	const prefix = uriScheme + "books/"
	const suffix = "/toc"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
