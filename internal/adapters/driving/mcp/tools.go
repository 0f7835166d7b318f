package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the textbook"`
	BookID   string `json:"book_id,omitempty" jsonschema:"the collection to search (default philosophy)"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of excerpts used for grounding (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string             `json:"answer"`
	Sources   []domain.SourceRef `json:"sources"`
	Degraded  bool               `json:"degraded,omitempty"`
	RequestID string             `json:"request_id"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"the search query"`
	BookID string `json:"book_id,omitempty" jsonschema:"the collection to search (default philosophy)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked chunk.
type SearchResultOutput struct {
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Pages     string  `json:"pages"`
	Score     float64 `json:"score"`
	Excerpt   string  `json:"excerpt"`
}

// TOCInput is the input schema for the toc tool.
type TOCInput struct {
	BookID string `json:"book_id" jsonschema:"the collection whose table of contents to return"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed textbook, with [n] citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Rank textbook sections against a query and return excerpts",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "toc",
		Description: "Return the table of contents of an indexed textbook",
	}, s.handleTOC)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answer == nil {
		return nil, AskOutput{}, ErrAnswerUnavailable
	}

	result, err := s.ports.Answer.Answer(ctx, input.BookID, input.Question, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:    result.Answer,
		Sources:   result.Sources,
		Degraded:  result.Degraded,
		RequestID: result.RequestID,
	}, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	q, err := domain.NewQuery(input.Query, input.BookID, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, q.CollectionID, q.Text, q.TopK)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("searching %s: %w", q.CollectionID, err)
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			SectionID: results[i].Chunk.ChunkID,
			Title:     results[i].Chunk.DisplayTitle(),
			Pages:     results[i].Chunk.PageRange(),
			Score:     results[i].Score,
			Excerpt:   results[i].Excerpt,
		}
	}

	return nil, output, nil
}

// handleTOC handles the toc tool invocation.
func (s *Server) handleTOC(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TOCInput,
) (*mcp.CallToolResult, domain.TableOfContents, error) {
	if s.ports.TOC == nil {
		return nil, domain.TableOfContents{}, fmt.Errorf("toc: %w", domain.ErrNotFound)
	}
	bookID := input.BookID
	if bookID == "" {
		bookID = domain.DefaultCollectionID
	}

	toc, err := s.ports.TOC.TOC(ctx, bookID)
	if err != nil {
		return nil, domain.TableOfContents{}, err
	}
	return nil, *toc, nil
}
