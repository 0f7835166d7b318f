package driving

import (
	"context"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// IndexService builds a collection from a source document.
type IndexService interface {
	// Index reads, chunks and persists the document named by the request.
	Index(ctx context.Context, req domain.IndexRequest) (*domain.IndexReport, error)

	// Copy replicates every chunk and the table of contents of a collection
	// into target. It returns the number of chunks copied.
	Copy(ctx context.Context, collectionID string, target driven.ChunkWriter) (int, error)
}
