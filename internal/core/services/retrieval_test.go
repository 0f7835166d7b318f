package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tutor/internal/core/domain"
)

// failingReader wraps a store and fails reads of selected chunks.
type failingReader struct {
	*memory.ChunkStore
	fail map[string]bool
}

func (r *failingReader) GetChunk(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.fail[chunkID] {
		return nil, errors.New("corrupt record")
	}
	return r.ChunkStore.GetChunk(ctx, collectionID, chunkID)
}

func seedStore(t *testing.T, texts map[string]string) *memory.ChunkStore {
	t.Helper()
	store := memory.NewChunkStore()
	for id, text := range texts {
		require.NoError(t, store.WriteChunk(context.Background(), &domain.Chunk{
			CollectionID: "philosophy",
			ChunkID:      id,
			Text:         text,
			Title:        "title " + id,
		}))
	}
	return store
}

func chunkIDs(scored []domain.ScoredChunk) []string {
	ids := make([]string, len(scored))
	for i, sc := range scored {
		ids[i] = sc.Chunk.ChunkID
	}
	return ids
}

func TestRetrievalService_Retrieve_RanksByRelevance(t *testing.T) {
	store := seedStore(t, map[string]string{
		"a": "Stoicism teaches that virtue is the only good.",
		"b": "Virtue ethics focuses on character. Virtue is cultivated by habit.",
		"c": "The printing press changed the spread of ideas.",
	})
	service := NewRetrievalService(store, nil)

	got, err := service.Retrieve(context.Background(), "philosophy", "what is virtue", 5)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"b", "a"}, chunkIDs(got))
	assert.Greater(t, got[0].Score, got[1].Score)
	for _, sc := range got {
		assert.Positive(t, sc.Score)
		assert.Contains(t, strings.ToLower(sc.Excerpt), "virtue")
	}
}

func TestRetrievalService_Retrieve_TruncatesToK(t *testing.T) {
	store := seedStore(t, map[string]string{
		"a": "justice",
		"b": "justice and fairness",
		"c": "justice in the city",
	})
	service := NewRetrievalService(store, nil)

	got, err := service.Retrieve(context.Background(), "philosophy", "justice", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRetrievalService_Retrieve_TiesKeepListingOrder(t *testing.T) {
	store := seedStore(t, map[string]string{
		"philosophy-b2-s0": "the cave allegory",
		"philosophy-b0-s0": "the cave allegory",
		"philosophy-b1-s0": "the cave allegory",
	})
	service := NewRetrievalService(store, nil)

	got, err := service.Retrieve(context.Background(), "philosophy", "cave", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"philosophy-b0-s0", "philosophy-b1-s0", "philosophy-b2-s0"}, chunkIDs(got))
}

func TestRetrievalService_Retrieve_NoOverlapIsEmpty(t *testing.T) {
	store := seedStore(t, map[string]string{"a": "epistemology"})
	service := NewRetrievalService(store, nil)

	got, err := service.Retrieve(context.Background(), "philosophy", "quantum chromodynamics", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRetrievalService_Retrieve_EmptyCollection(t *testing.T) {
	store := memory.NewChunkStore()
	require.NoError(t, store.WriteTOC(context.Background(), &domain.TableOfContents{CollectionID: "philosophy"}))
	service := NewRetrievalService(store, nil)

	got, err := service.Retrieve(context.Background(), "philosophy", "virtue", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrievalService_Retrieve_UnknownCollection(t *testing.T) {
	service := NewRetrievalService(memory.NewChunkStore(), nil)

	_, err := service.Retrieve(context.Background(), "chemistry", "virtue", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestRetrievalService_Retrieve_SkipsUnreadableChunks(t *testing.T) {
	reader := &failingReader{
		ChunkStore: seedStore(t, map[string]string{
			"a": "virtue and vice",
			"b": "virtue alone",
		}),
		fail: map[string]bool{"a": true},
	}
	service := NewRetrievalService(reader, nil, WithConcurrency(1))

	got, err := service.Retrieve(context.Background(), "philosophy", "virtue", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, chunkIDs(got))
}

func TestRetrievalService_Retrieve_CancelledContext(t *testing.T) {
	reader := &failingReader{ChunkStore: seedStore(t, map[string]string{"a": "virtue"})}
	service := NewRetrievalService(reader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Retrieve(ctx, "philosophy", "virtue", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrievalService_Retrieve_CapsChunkText(t *testing.T) {
	store := seedStore(t, map[string]string{"a": "virtue " + strings.Repeat("x", 100)})
	service := NewRetrievalService(store, nil, WithChunkCap(20))

	got, err := service.Retrieve(context.Background(), "philosophy", "virtue", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Chunk.Text, 20)
}

func TestRetrievalService_Retrieve_CandidateLimit(t *testing.T) {
	store := seedStore(t, map[string]string{
		"a": "virtue",
		"b": "virtue",
		"c": "virtue",
	})
	service := NewRetrievalService(store, nil, WithCandidateLimit(2))

	got, err := service.Retrieve(context.Background(), "philosophy", "virtue", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chunkIDs(got))
}

func TestRetrievalService_RetrieveCandidates(t *testing.T) {
	service := NewRetrievalService(memory.NewChunkStore(), nil, WithExcerptChars(30))
	candidates := []domain.Chunk{
		{ChunkID: "x", Text: strings.Repeat("filler ", 20) + "Descartes doubted everything."},
		{ChunkID: "y", Text: "nothing relevant"},
	}

	got := service.RetrieveCandidates("Descartes", 3, candidates)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Chunk.ChunkID)
	assert.Contains(t, got[0].Excerpt, "Descartes")
	assert.LessOrEqual(t, len([]rune(got[0].Excerpt)), 30)

	assert.Empty(t, service.RetrieveCandidates("Descartes", 0, candidates))
	assert.Empty(t, service.RetrieveCandidates("Descartes", 3, nil))
}

func TestRetrievalService_RetrieveCandidates_StableTies(t *testing.T) {
	service := NewRetrievalService(memory.NewChunkStore(), nil)

	order := []string{"m", "c", "q", "a", "t", "h", "o", "e", "s", "b", "r", "k", "f", "p", "d", "n", "g", "l"}
	candidates := make([]domain.Chunk, 0, len(order)+2)
	for i, id := range order {
		candidates = append(candidates, domain.Chunk{ChunkID: id, Text: "the cave allegory"})
		if i == 6 {
			candidates = append(candidates, domain.Chunk{ChunkID: "z1", Text: "cave cave"})
		}
		if i == 12 {
			candidates = append(candidates, domain.Chunk{ChunkID: "z2", Text: "cave cave"})
		}
	}

	got := service.RetrieveCandidates("cave", len(candidates), candidates)

	want := append([]string{"z1", "z2"}, order...)
	assert.Equal(t, want, chunkIDs(got))
}

func TestRetrievalService_Retrieve_Idempotent(t *testing.T) {
	texts := map[string]string{}
	for i := 0; i < 30; i++ {
		texts[domain.ChunkID("philosophy", i, 0)] = strings.Repeat("virtue ", i%4+1) + "and the good life"
	}
	service := NewRetrievalService(seedStore(t, texts), nil, WithConcurrency(4))
	ctx := context.Background()

	first, err := service.Retrieve(ctx, "philosophy", "virtue good", 12)
	require.NoError(t, err)
	require.Len(t, first, 12)

	second, err := service.Retrieve(ctx, "philosophy", "virtue good", 12)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetrievalService_Books(t *testing.T) {
	store := seedStore(t, map[string]string{"a": "virtue"})
	require.NoError(t, store.WriteTOC(context.Background(), &domain.TableOfContents{CollectionID: "ethics"}))
	service := NewRetrievalService(store, nil)

	books, err := service.Books(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ethics", "philosophy"}, books)
}

func TestRetrievalService_TOC(t *testing.T) {
	store := memory.NewChunkStore()
	toc := &domain.TableOfContents{
		CollectionID: "philosophy",
		Entries:      []domain.TOCEntry{{ChunkID: "philosophy-b0-s0", Title: "intro"}},
	}
	require.NoError(t, store.WriteTOC(context.Background(), toc))
	service := NewRetrievalService(store, nil)

	got, err := service.TOC(context.Background(), "philosophy")
	require.NoError(t, err)
	assert.Equal(t, toc.Entries, got.Entries)

	_, err = service.TOC(context.Background(), "chemistry")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
