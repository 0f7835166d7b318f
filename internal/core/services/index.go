package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/tutor/internal/checksum"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
	"github.com/custodia-labs/tutor/internal/logger"
	"github.com/custodia-labs/tutor/internal/postprocessors/chunker"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService builds collections offline from source documents.
type IndexService struct {
	store    driven.ChunkStore
	readers  driven.PageReaderRegistry
	readFile func(string) ([]byte, error)
	now      func() time.Time
}

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithIndexClock replaces time.Now for the created_at of written chunks.
func WithIndexClock(now func() time.Time) IndexOption {
	return func(s *IndexService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFileReader replaces os.ReadFile.
func WithFileReader(read func(string) ([]byte, error)) IndexOption {
	return func(s *IndexService) {
		if read != nil {
			s.readFile = read
		}
	}
}

// NewIndexService creates an index service writing to store.
func NewIndexService(store driven.ChunkStore, readers driven.PageReaderRegistry, opts ...IndexOption) *IndexService {
	s := &IndexService{
		store:    store,
		readers:  readers,
		readFile: os.ReadFile,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index reads the document page by page, chunks it and replaces the
// collection with the result. Every chunk of a run shares one created_at.
// A document without text still produces an empty collection.
//
// New records and the toc are written before chunks left over from the
// previous run are deleted, so a run that fails midway leaves every chunk
// readable. Stores without a ChunkDeleter keep the stale chunks.
func (s *IndexService) Index(ctx context.Context, req domain.IndexRequest) (*domain.IndexReport, error) {
	collectionID := strings.TrimSpace(req.CollectionID)
	if collectionID == "" || strings.ContainsAny(collectionID, `/\`) || strings.Contains(collectionID, "..") {
		return nil, domain.NewValidationError("book_id", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, domain.NewValidationError("path", domain.ErrInvalidInput)
	}

	logger.Section("Index")
	logger.Debug("Indexing %s into %s", req.Path, collectionID)

	reader, err := s.readers.ForPath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(req.Path), err)
	}
	data, err := s.readFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Path, err)
	}
	pages, err := reader.ReadPages(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting pages from %s: %w", req.Path, err)
	}
	logger.Debug("Extracted %d pages", len(pages))

	proc := chunker.New(chunker.WithMaxChars(req.MaxChars), chunker.WithPagesPerBlock(req.PagesPerBlock))
	candidates := proc.ChunkPages(collectionID, pages)
	logger.Debug("%s produced %d chunks (max %d chars, %d pages per block)",
		proc.Name(), len(candidates), proc.MaxChars(), proc.PagesPerBlock())

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = collectionID
	}
	createdAt := s.now().UTC().Truncate(time.Second)
	sourceFile := filepath.Base(req.Path)

	chunks := make([]domain.Chunk, len(candidates))
	toc := &domain.TableOfContents{
		CollectionID: collectionID,
		Subject:      subject,
		SourceFile:   sourceFile,
		CreatedAt:    createdAt.Unix(),
		Entries:      make([]domain.TOCEntry, len(candidates)),
	}
	report := &domain.IndexReport{CollectionID: collectionID, Pages: len(pages), Chunks: len(candidates)}

	for i, c := range candidates {
		chunks[i] = domain.Chunk{
			CollectionID: collectionID,
			ChunkID:      c.ChunkID,
			Text:         c.Text,
			PageStart:    domain.PageNum(c.PageStart),
			PageEnd:      domain.PageNum(c.PageEnd),
			Title:        fmt.Sprintf("%s block %d chunk %d", collectionID, c.BlockIndex, c.SubIndex),
			Subject:      subject,
			SourceFile:   sourceFile,
			CreatedAt:    createdAt,
		}
		toc.Entries[i] = domain.TOCEntry{
			ChunkID:   c.ChunkID,
			Title:     chunks[i].Title,
			PageStart: chunks[i].PageStart,
			PageEnd:   chunks[i].PageEnd,
			ByteSize:  len(c.Text),
			Checksum:  checksum.String(c.Text),
		}
		report.Bytes += len(c.Text)
	}

	previous, err := s.store.ListChunkIDs(ctx, collectionID, 0)
	if err != nil && !errors.Is(err, domain.ErrUnknownCollection) {
		return nil, fmt.Errorf("listing %s: %w", collectionID, err)
	}
	if err := writeChunks(ctx, s.store, chunks); err != nil {
		return nil, err
	}
	if err := s.store.WriteTOC(ctx, toc); err != nil {
		return nil, fmt.Errorf("writing toc: %w", err)
	}
	if err := s.pruneStale(ctx, collectionID, previous, chunks); err != nil {
		return nil, err
	}

	logger.Info("Indexed %s: %d pages, %d chunks, %d bytes", collectionID, report.Pages, report.Chunks, report.Bytes)
	return report, nil
}

// pruneStale deletes the previous chunk ids the current run did not write.
func (s *IndexService) pruneStale(ctx context.Context, collectionID string, previous []string, chunks []domain.Chunk) error {
	written := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		written[chunks[i].ChunkID] = struct{}{}
	}
	var stale []string
	for _, id := range previous {
		if _, ok := written[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	deleter, ok := s.store.(driven.ChunkDeleter)
	if !ok {
		logger.Warn("store cannot delete records, %d stale chunks of %s kept", len(stale), collectionID)
		return nil
	}
	if err := deleter.DeleteChunks(ctx, collectionID, stale); err != nil {
		return fmt.Errorf("deleting stale chunks of %s: %w", collectionID, err)
	}
	logger.Debug("Deleted %d stale chunks of %s", len(stale), collectionID)
	return nil
}

// Copy replicates a collection into target, chunks first, then the toc.
// Chunk text is copied in full when the store can read it uncapped.
func (s *IndexService) Copy(ctx context.Context, collectionID string, target driven.ChunkWriter) (int, error) {
	ids, err := s.store.ListChunkIDs(ctx, collectionID, 0)
	if err != nil {
		return 0, fmt.Errorf("list chunks of %q: %w", collectionID, err)
	}

	read := s.store.GetChunk
	if raw, ok := s.store.(driven.RawChunkReader); ok {
		read = raw.GetChunkRaw
	} else {
		logger.Warn("store caps chunk text on read, oversized chunks of %s will be truncated", collectionID)
	}

	chunks := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		chunk, err := read(ctx, collectionID, id)
		if err != nil {
			return 0, fmt.Errorf("reading chunk %s: %w", id, err)
		}
		chunks = append(chunks, *chunk)
	}
	if err := writeChunks(ctx, target, chunks); err != nil {
		return 0, err
	}

	toc, err := s.store.GetTOC(ctx, collectionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Warn("collection %s has no table of contents to copy", collectionID)
	case err != nil:
		return len(chunks), fmt.Errorf("reading toc: %w", err)
	default:
		if err := target.WriteTOC(ctx, toc); err != nil {
			return len(chunks), fmt.Errorf("writing toc: %w", err)
		}
	}

	logger.Debug("Copied %d chunks of %s", len(chunks), collectionID)
	return len(chunks), nil
}

// writeChunks uses a batch write where the store supports it.
func writeChunks(ctx context.Context, w driven.ChunkWriter, chunks []domain.Chunk) error {
	if batch, ok := w.(driven.BatchWriter); ok {
		if err := batch.WriteChunks(ctx, chunks); err != nil {
			return fmt.Errorf("writing chunks: %w", err)
		}
		return nil
	}
	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteChunk(ctx, &chunks[i]); err != nil {
			return fmt.Errorf("writing chunk %s: %w", chunks[i].ChunkID, err)
		}
	}
	return nil
}
