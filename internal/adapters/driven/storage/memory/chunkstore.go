// Package memory provides in-memory implementations of driven ports, used
// for tests and for answering against a collection indexed in the same process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interfaces.
var (
	_ driven.ChunkStore     = (*ChunkStore)(nil)
	_ driven.ChunkDeleter   = (*ChunkStore)(nil)
	_ driven.RawChunkReader = (*ChunkStore)(nil)
)

// collection holds the records of one collection.
type collection struct {
	chunks map[string]domain.Chunk
	toc    *domain.TableOfContents
}

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	chunkCap    int
}

// NewChunkStore creates a new in-memory chunk store.
// Chunk text is capped at domain.DefaultChunkTextCap on read.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		collections: make(map[string]*collection),
		chunkCap:    domain.DefaultChunkTextCap,
	}
}

// SetChunkCap changes the per-chunk text cap applied on read.
func (s *ChunkStore) SetChunkCap(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkCap = n
}

func (s *ChunkStore) ensure(collectionID string) *collection {
	c, ok := s.collections[collectionID]
	if !ok {
		c = &collection{chunks: make(map[string]domain.Chunk)}
		s.collections[collectionID] = c
	}
	return c
}

// WriteChunk stores or replaces a chunk.
func (s *ChunkStore) WriteChunk(_ context.Context, chunk *domain.Chunk) error {
	if chunk == nil {
		return domain.ErrInvalidInput
	}
	if err := chunk.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(chunk.CollectionID).chunks[chunk.ChunkID] = *chunk
	return nil
}

// WriteTOC stores or replaces the table of contents.
func (s *ChunkStore) WriteTOC(_ context.Context, toc *domain.TableOfContents) error {
	if toc == nil || toc.CollectionID == "" {
		return domain.NewValidationError("book_id", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *toc
	cp.Entries = append([]domain.TOCEntry(nil), toc.Entries...)
	s.ensure(toc.CollectionID).toc = &cp
	return nil
}

// ListChunkIDs returns chunk IDs in lexical order, like an object listing.
func (s *ChunkStore) ListChunkIDs(_ context.Context, collectionID string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionID]
	if !ok {
		return nil, domain.ErrUnknownCollection
	}
	ids := make([]string, 0, len(c.chunks))
	for id := range c.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetChunk retrieves a chunk with its text capped.
func (s *ChunkStore) GetChunk(_ context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, err := s.lookup(collectionID, chunkID)
	if err != nil {
		return nil, err
	}
	capped := chunk.Capped(s.chunkCap)
	return &capped, nil
}

// GetChunkRaw retrieves a chunk with its full text.
func (s *ChunkStore) GetChunkRaw(_ context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, err := s.lookup(collectionID, chunkID)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (s *ChunkStore) lookup(collectionID, chunkID string) (domain.Chunk, error) {
	c, ok := s.collections[collectionID]
	if !ok {
		return domain.Chunk{}, domain.ErrNotFound
	}
	chunk, ok := c.chunks[chunkID]
	if !ok {
		return domain.Chunk{}, domain.ErrNotFound
	}
	return chunk, nil
}

// ListCollections returns collection IDs in lexical order.
func (s *ChunkStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.collections))
	for id := range s.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetTOC retrieves the table of contents.
func (s *ChunkStore) GetTOC(_ context.Context, collectionID string) (*domain.TableOfContents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionID]
	if !ok || c.toc == nil {
		return nil, domain.ErrNotFound
	}
	cp := *c.toc
	cp.Entries = append([]domain.TOCEntry(nil), c.toc.Entries...)
	return &cp, nil
}

// DeleteChunks removes chunks of a collection.
func (s *ChunkStore) DeleteChunks(_ context.Context, collectionID string, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collectionID]
	if !ok {
		return nil
	}
	for _, id := range chunkIDs {
		delete(c.chunks, id)
	}
	return nil
}

// DeleteCollection drops a collection.
func (s *ChunkStore) DeleteCollection(_ context.Context, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collectionID)
	return nil
}

// Close is a no-op.
func (s *ChunkStore) Close() error {
	return nil
}
