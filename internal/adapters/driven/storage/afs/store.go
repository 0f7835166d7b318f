// Package afs provides a driven.ChunkStore over any viant/afs URL.
//
// Records are laid out as one JSON object per chunk plus one table of
// contents per collection:
//
//	<base>/<collection>/sections/<chunk_id>.json
//	<base>/<collection>/toc.json
//
// The base may be a local path, a file:// or mem:// URL, or an s3:// bucket
// (the afsc S3 storager is registered on import).
package afs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	_ "github.com/viant/afsc/s3" // s3:// storager

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

const (
	sectionsDir = "sections"
	tocFile     = "toc.json"
	recordExt   = ".json"
)

// Ensure Store implements the interfaces.
var (
	_ driven.ChunkStore     = (*Store)(nil)
	_ driven.ChunkDeleter   = (*Store)(nil)
	_ driven.RawChunkReader = (*Store)(nil)
)

// Store reads and writes chunk records under a base URL.
type Store struct {
	fs       afs.Service
	baseURL  string
	chunkCap int
}

// Option configures the store.
type Option func(*Store)

// WithChunkCap sets the per-chunk text cap applied on read.
func WithChunkCap(n int) Option {
	return func(s *Store) {
		s.chunkCap = n
	}
}

// WithService replaces the afs service, e.g. with one carrying credentials.
func WithService(fs afs.Service) Option {
	return func(s *Store) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// NewStore creates a store rooted at baseURL. Plain paths are turned into
// absolute file:// URLs.
func NewStore(baseURL string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("store url: %w", domain.ErrInvalidInput)
	}

	norm, err := normaliseURL(baseURL)
	if err != nil {
		return nil, err
	}

	s := &Store{
		fs:       afs.New(),
		baseURL:  norm,
		chunkCap: domain.DefaultChunkTextCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func normaliseURL(location string) (string, error) {
	if url.Scheme(location, "") != "" {
		return strings.TrimSuffix(location, "/"), nil
	}
	if url.IsRelative(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", location, err)
		}
		location = abs
	}
	return url.ToFileURL(location), nil
}

// URL returns the normalised base URL.
func (s *Store) URL() string {
	return s.baseURL
}

func (s *Store) collectionURL(collectionID string) string {
	return url.Join(s.baseURL, collectionID)
}

func (s *Store) chunkURL(collectionID, chunkID string) string {
	return url.Join(s.collectionURL(collectionID), sectionsDir, chunkID+recordExt)
}

func (s *Store) tocURL(collectionID string) string {
	return url.Join(s.collectionURL(collectionID), tocFile)
}

// WriteChunk uploads one chunk record, replacing any existing one.
func (s *Store) WriteChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil {
		return domain.ErrInvalidInput
	}
	if err := chunk.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshalling chunk: %w", err)
	}
	if err := s.fs.Upload(ctx, s.chunkURL(chunk.CollectionID, chunk.ChunkID), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("uploading chunk %s: %w", chunk.ChunkID, err)
	}
	return nil
}

// WriteTOC uploads the table of contents, replacing any existing one.
func (s *Store) WriteTOC(ctx context.Context, toc *domain.TableOfContents) error {
	if toc == nil || toc.CollectionID == "" {
		return domain.NewValidationError("book_id", domain.ErrInvalidInput)
	}
	data, err := json.MarshalIndent(toc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling toc: %w", err)
	}
	if err := s.fs.Upload(ctx, s.tocURL(toc.CollectionID), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("uploading toc: %w", err)
	}
	return nil
}

// ListChunkIDs lists chunk records in lexical order.
// A collection without a directory is unknown; one without sections is empty.
func (s *Store) ListChunkIDs(ctx context.Context, collectionID string, limit int) ([]string, error) {
	exists, err := s.fs.Exists(ctx, s.collectionURL(collectionID))
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}
	if !exists {
		return nil, domain.ErrUnknownCollection
	}

	sections := url.Join(s.collectionURL(collectionID), sectionsDir)
	if ok, _ := s.fs.Exists(ctx, sections); !ok {
		return []string{}, nil
	}

	objects, err := s.fs.List(ctx, sections)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}

	ids := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		name := object.Name()
		if !strings.HasSuffix(name, recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetChunk downloads one chunk record and caps its text.
func (s *Store) GetChunk(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	chunk, err := s.GetChunkRaw(ctx, collectionID, chunkID)
	if err != nil {
		return nil, err
	}
	capped := chunk.Capped(s.chunkCap)
	return &capped, nil
}

// GetChunkRaw downloads one chunk record with its full text.
func (s *Store) GetChunkRaw(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	data, err := s.download(ctx, s.chunkURL(collectionID, chunkID))
	if err != nil {
		return nil, err
	}

	var chunk domain.Chunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", chunkID, err)
	}
	// Records written by older indexers may omit identifiers.
	if chunk.CollectionID == "" {
		chunk.CollectionID = collectionID
	}
	if chunk.ChunkID == "" {
		chunk.ChunkID = chunkID
	}
	if err := chunk.Validate(); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// ListCollections lists the collection directories under the base URL.
// A base that does not exist yet holds no collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	exists, err := s.fs.Exists(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", s.baseURL, err)
	}
	if !exists {
		return []string{}, nil
	}

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	ids := make([]string, 0, len(objects))
	for _, object := range objects {
		// The listing includes the base itself.
		if !object.IsDir() || url.Equals(object.URL(), s.baseURL) {
			continue
		}
		ids = append(ids, object.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// GetTOC downloads the table of contents.
func (s *Store) GetTOC(ctx context.Context, collectionID string) (*domain.TableOfContents, error) {
	data, err := s.download(ctx, s.tocURL(collectionID))
	if err != nil {
		return nil, err
	}

	var toc domain.TableOfContents
	if err := json.Unmarshal(data, &toc); err != nil {
		return nil, fmt.Errorf("decoding toc: %w", err)
	}
	if toc.CollectionID == "" {
		toc.CollectionID = collectionID
	}
	return &toc, nil
}

// download fetches a record, mapping a missing object to domain.ErrNotFound.
func (s *Store) download(ctx context.Context, location string) ([]byte, error) {
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", location, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("downloading %s: %w", location, err)
	}
	return data, nil
}

// DeleteChunks removes chunk records of a collection.
func (s *Store) DeleteChunks(ctx context.Context, collectionID string, chunkIDs []string) error {
	for _, id := range chunkIDs {
		location := s.chunkURL(collectionID, id)
		exists, err := s.fs.Exists(ctx, location)
		if err != nil {
			return fmt.Errorf("checking chunk %s: %w", id, err)
		}
		if !exists {
			continue
		}
		if err := s.fs.Delete(ctx, location); err != nil {
			return fmt.Errorf("deleting chunk %s: %w", id, err)
		}
	}
	return nil
}

// DeleteCollection removes the collection directory with every record in it.
func (s *Store) DeleteCollection(ctx context.Context, collectionID string) error {
	location := s.collectionURL(collectionID)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("deleting collection %s: %w", collectionID, err)
	}
	return nil
}

// Close is a no-op; the afs service holds no per-store resources.
func (s *Store) Close() error {
	return nil
}
