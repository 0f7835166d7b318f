package driven

import (
	"context"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// ChunkReader provides read access to an indexed collection.
type ChunkReader interface {
	// ListChunkIDs returns up to limit chunk IDs of the collection in a
	// stable order. A non-positive limit means no limit.
	// Returns domain.ErrUnknownCollection if the collection does not exist.
	ListChunkIDs(ctx context.Context, collectionID string, limit int) ([]string, error)

	// GetChunk reads one chunk. Text is capped at the store's per-chunk cap.
	// Returns domain.ErrNotFound if the chunk does not exist.
	GetChunk(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error)

	// GetTOC reads the table of contents of the collection.
	// Returns domain.ErrNotFound if none has been written.
	GetTOC(ctx context.Context, collectionID string) (*domain.TableOfContents, error)

	// ListCollections returns the IDs of every collection in lexical order.
	// An empty store returns an empty slice.
	ListCollections(ctx context.Context) ([]string, error)
}

// RawChunkReader is implemented by stores that can read a chunk without
// the per-chunk cap. Replication uses it so oversized chunks survive a copy.
type RawChunkReader interface {
	// GetChunkRaw reads one chunk with its full text.
	// Returns domain.ErrNotFound if the chunk does not exist.
	GetChunkRaw(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error)
}

// ChunkWriter persists the output of an indexing run.
// Writes are idempotent: writing the same chunk twice leaves one record.
type ChunkWriter interface {
	// WriteChunk persists one chunk record, replacing any existing one.
	WriteChunk(ctx context.Context, chunk *domain.Chunk) error

	// WriteTOC persists the table of contents, replacing any existing one.
	WriteTOC(ctx context.Context, toc *domain.TableOfContents) error
}

// ChunkStore is a readable and writable chunk store.
type ChunkStore interface {
	ChunkReader
	ChunkWriter

	// Close releases resources.
	Close() error
}

// ChunkDeleter is implemented by stores that can remove records.
type ChunkDeleter interface {
	// DeleteChunks removes the named chunks of a collection.
	// Missing chunks are skipped.
	DeleteChunks(ctx context.Context, collectionID string, chunkIDs []string) error

	// DeleteCollection removes every chunk and the toc of a collection.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, collectionID string) error
}

// BatchWriter is implemented by stores that persist many chunks at once.
type BatchWriter interface {
	WriteChunks(ctx context.Context, chunks []domain.Chunk) error
}
