package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
	"github.com/custodia-labs/tutor/internal/logger"
	"github.com/custodia-labs/tutor/internal/ranking"
)

// Ensure RetrievalService implements the interfaces.
var (
	_ driving.RetrievalService = (*RetrievalService)(nil)
	_ driving.TOCService       = (*RetrievalService)(nil)
	_ driving.CatalogService   = (*RetrievalService)(nil)
)

// Retrieval defaults.
const (
	DefaultCandidateLimit = 2000
	DefaultConcurrency    = 8
)

// RetrievalService ranks the chunks of a collection against a query.
// It holds no per-request state and is safe for concurrent use.
type RetrievalService struct {
	store          driven.ChunkReader
	strategy       ranking.Strategy
	candidateLimit int
	concurrency    int
	excerptChars   int
	chunkCap       int
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithCandidateLimit bounds how many chunk ids are listed per request.
func WithCandidateLimit(n int) RetrievalOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.candidateLimit = n
		}
	}
}

// WithConcurrency bounds parallel chunk fetches.
func WithConcurrency(n int) RetrievalOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithExcerptChars sets the excerpt window.
func WithExcerptChars(n int) RetrievalOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.excerptChars = n
		}
	}
}

// WithChunkCap caps each chunk's text before scoring, on top of any cap
// the store already applies.
func WithChunkCap(n int) RetrievalOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.chunkCap = n
		}
	}
}

// NewRetrievalService creates a retrieval service. A nil strategy selects BM25.
func NewRetrievalService(store driven.ChunkReader, strategy ranking.Strategy, opts ...RetrievalOption) *RetrievalService {
	if strategy == nil {
		strategy = ranking.NewBM25()
	}
	s := &RetrievalService{
		store:          store,
		strategy:       strategy,
		candidateLimit: DefaultCandidateLimit,
		concurrency:    DefaultConcurrency,
		excerptChars:   ranking.DefaultExcerptChars,
		chunkCap:       domain.DefaultChunkTextCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve lists the collection, fetches candidates in parallel and returns
// up to k chunks with a positive score, best first. Chunks that cannot be
// read are logged and skipped.
func (s *RetrievalService) Retrieve(ctx context.Context, collectionID, query string, k int) ([]domain.ScoredChunk, error) {
	logger.Section("Retrieval")
	logger.Debug("Collection: %s, query: %q, k: %d", collectionID, query, k)

	ids, err := s.store.ListChunkIDs(ctx, collectionID, s.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list chunks of %q: %w", collectionID, err)
	}
	logger.Debug("Listed %d candidate chunks", len(ids))
	if len(ids) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	chunks, err := s.fetch(ctx, collectionID, ids)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched %d of %d chunks", len(chunks), len(ids))

	return s.RetrieveCandidates(query, k, chunks), nil
}

// fetch reads chunks with bounded concurrency and keeps listing order.
// Only context cancellation aborts the batch.
func (s *RetrievalService) fetch(ctx context.Context, collectionID string, ids []string) ([]domain.Chunk, error) {
	slots := make([]*domain.Chunk, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk, err := s.store.GetChunk(gctx, collectionID, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("skipping chunk %s/%s: %v", collectionID, id, err)
				return nil
			}
			capped := chunk.Capped(s.chunkCap)
			slots[i] = &capped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(ids))
	for _, c := range slots {
		if c != nil {
			chunks = append(chunks, *c)
		}
	}
	return chunks, nil
}

// RetrieveCandidates is the pure ranking step: score every candidate, drop
// non-positive scores, stable sort by score descending (ties keep candidate
// order), keep the top k and attach an excerpt to each.
func (s *RetrievalService) RetrieveCandidates(query string, k int, candidates []domain.Chunk) []domain.ScoredChunk {
	if len(candidates) == 0 || k <= 0 {
		return []domain.ScoredChunk{}
	}

	docs := make([]string, len(candidates))
	for i := range candidates {
		docs[i] = candidates[i].Text
	}
	scores := s.strategy.Rank(query, docs)

	ranked := make([]domain.ScoredChunk, 0, len(candidates))
	for i, score := range scores {
		if score > 0 {
			ranked = append(ranked, domain.ScoredChunk{Chunk: candidates[i], Score: score})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	tokens := ranking.Tokenize(query)
	for i := range ranked {
		ranked[i].Excerpt = ranking.Excerpt(ranked[i].Chunk.Text, tokens, s.excerptChars)
	}
	logger.Debug("%s ranked %d of %d candidates above zero", s.strategy.Name(), len(ranked), len(candidates))
	return ranked
}

// TOC returns the table of contents of a collection.
func (s *RetrievalService) TOC(ctx context.Context, collectionID string) (*domain.TableOfContents, error) {
	toc, err := s.store.GetTOC(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("table of contents of %q: %w", collectionID, err)
	}
	return toc, nil
}

// Books lists the collections of the underlying store.
func (s *RetrievalService) Books(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return ids, nil
}
