package mcp

import (
	"context"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.ScoredChunk
	err     error

	gotCollection string
	gotQuery      string
	gotK          int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, collectionID, query string, k int) ([]domain.ScoredChunk, error) {
	m.gotCollection, m.gotQuery, m.gotK = collectionID, query, k
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	result *domain.AnswerResult
	err    error
}

func (m *mockAnswerService) Answer(_ context.Context, _, _ string, _ int) (*domain.AnswerResult, error) {
	return m.result, m.err
}

// mockTOCService is a mock implementation of driving.TOCService.
type mockTOCService struct {
	toc *domain.TableOfContents
	err error
}

func (m *mockTOCService) TOC(_ context.Context, _ string) (*domain.TableOfContents, error) {
	return m.toc, m.err
}

type mockCatalogService struct {
	books []string
	err   error
}

func (m *mockCatalogService) Books(_ context.Context) ([]string, error) {
	return m.books, m.err
}
