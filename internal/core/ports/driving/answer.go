package driving

import (
	"context"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// AnswerService answers questions against an indexed collection.
type AnswerService interface {
	// Answer validates the question, retrieves grounding chunks and generates
	// a cited answer. Invalid input returns an error satisfying
	// domain.IsValidation; generation failures wrap domain.ErrGenerationFailed.
	Answer(ctx context.Context, collectionID, question string, topK int) (*domain.AnswerResult, error)
}

// RetrievalService ranks the chunks of a collection against a query.
type RetrievalService interface {
	// Retrieve returns up to k chunks with a positive score, best first.
	Retrieve(ctx context.Context, collectionID, query string, k int) ([]domain.ScoredChunk, error)
}

// TOCService exposes the table of contents of a collection.
type TOCService interface {
	// TOC returns the table of contents written by the last indexing run.
	TOC(ctx context.Context, collectionID string) (*domain.TableOfContents, error)
}

// CatalogService lists the indexed collections.
type CatalogService interface {
	// Books returns the IDs of every indexed collection in lexical order.
	Books(ctx context.Context) ([]string, error)
}
