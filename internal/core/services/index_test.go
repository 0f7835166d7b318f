package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tutor/internal/checksum"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/normalisers"
)

const bookText = "Kant wrote about duty.\n\nThe categorical imperative binds all rational agents.\f" +
	"Utilitarianism evaluates acts by consequences.\f" +
	"   \f" +
	"Hume doubted causation."

func writeBook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ethics.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
}

func TestIndexService_Index(t *testing.T) {
	store := memory.NewChunkStore()
	service := NewIndexService(store, normalisers.DefaultRegistry(), WithIndexClock(fixedClock))
	ctx := context.Background()

	report, err := service.Index(ctx, domain.IndexRequest{
		Path:          writeBook(t, bookText),
		CollectionID:  "ethics",
		PagesPerBlock: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "ethics", report.CollectionID)
	assert.Equal(t, 4, report.Pages)
	assert.Equal(t, 2, report.Chunks)

	ids, err := store.ListChunkIDs(ctx, "ethics", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ethics-b0-s0", "ethics-b1-s0"}, ids)

	first, err := store.GetChunk(ctx, "ethics", "ethics-b0-s0")
	require.NoError(t, err)
	assert.Equal(t, "ethics block 0 chunk 0", first.Title)
	assert.Equal(t, "ethics", first.Subject)
	assert.Equal(t, "ethics.txt", first.SourceFile)
	assert.Equal(t, 1, *first.PageStart)
	assert.Equal(t, 2, *first.PageEnd)
	assert.Contains(t, first.Text, "categorical imperative")
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), first.CreatedAt)

	second, err := store.GetChunk(ctx, "ethics", "ethics-b1-s0")
	require.NoError(t, err)
	assert.Equal(t, 3, *second.PageStart)
	assert.Equal(t, 4, *second.PageEnd)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	toc, err := store.GetTOC(ctx, "ethics")
	require.NoError(t, err)
	require.Len(t, toc.Entries, 2)
	assert.Equal(t, "ethics.txt", toc.SourceFile)
	assert.Equal(t, first.CreatedAt.Unix(), toc.CreatedAt)
	assert.Equal(t, len(first.Text), toc.Entries[0].ByteSize)
	assert.Equal(t, checksum.String(first.Text), toc.Entries[0].Checksum)
	assert.Equal(t, len(first.Text)+len(second.Text), report.Bytes)
}

func TestIndexService_Index_ReplacesCollection(t *testing.T) {
	store := memory.NewChunkStore()
	service := NewIndexService(store, normalisers.DefaultRegistry())
	ctx := context.Background()

	long := writeBook(t, strings.Repeat("A long paragraph about virtue.\n\n", 100))
	_, err := service.Index(ctx, domain.IndexRequest{Path: long, CollectionID: "ethics", MaxChars: 200})
	require.NoError(t, err)

	_, err = service.Index(ctx, domain.IndexRequest{Path: writeBook(t, "short"), CollectionID: "ethics", Subject: "philosophy"})
	require.NoError(t, err)

	ids, err := store.ListChunkIDs(ctx, "ethics", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ethics-b0-s0"}, ids)

	chunk, err := store.GetChunk(ctx, "ethics", "ethics-b0-s0")
	require.NoError(t, err)
	assert.Equal(t, "philosophy", chunk.Subject)
}

func TestIndexService_Index_EmptyDocument(t *testing.T) {
	store := memory.NewChunkStore()
	service := NewIndexService(store, normalisers.DefaultRegistry())
	ctx := context.Background()

	report, err := service.Index(ctx, domain.IndexRequest{Path: writeBook(t, "  \f \n "), CollectionID: "blank"})
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)

	ids, err := store.ListChunkIDs(ctx, "blank", 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIndexService_Index_InvalidRequest(t *testing.T) {
	service := NewIndexService(memory.NewChunkStore(), normalisers.DefaultRegistry())
	ctx := context.Background()

	_, err := service.Index(ctx, domain.IndexRequest{Path: "book.txt"})
	assert.True(t, domain.IsValidation(err))

	_, err = service.Index(ctx, domain.IndexRequest{Path: "book.txt", CollectionID: "../etc"})
	assert.True(t, domain.IsValidation(err))

	_, err = service.Index(ctx, domain.IndexRequest{CollectionID: "ethics"})
	assert.True(t, domain.IsValidation(err))

	_, err = service.Index(ctx, domain.IndexRequest{Path: "slides.pptx", CollectionID: "ethics"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = service.Index(ctx, domain.IndexRequest{Path: filepath.Join(t.TempDir(), "missing.txt"), CollectionID: "ethics"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndexService_Index_SQLiteBatch(t *testing.T) {
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	service := NewIndexService(store, normalisers.DefaultRegistry())
	ctx := context.Background()

	report, err := service.Index(ctx, domain.IndexRequest{Path: writeBook(t, bookText), CollectionID: "ethics", PagesPerBlock: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Chunks)

	ids, err := store.ListChunkIDs(ctx, "ethics", 0)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestIndexService_Copy(t *testing.T) {
	source := memory.NewChunkStore()
	service := NewIndexService(source, normalisers.DefaultRegistry())
	ctx := context.Background()

	_, err := service.Index(ctx, domain.IndexRequest{Path: writeBook(t, bookText), CollectionID: "ethics", PagesPerBlock: 2})
	require.NoError(t, err)

	target := memory.NewChunkStore()
	n, err := service.Copy(ctx, "ethics", target)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := target.ListChunkIDs(ctx, "ethics", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ethics-b0-s0", "ethics-b1-s0"}, ids)

	toc, err := target.GetTOC(ctx, "ethics")
	require.NoError(t, err)
	assert.Len(t, toc.Entries, 2)

	_, err = service.Copy(ctx, "missing", target)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestIndexService_Copy_KeepsOversizedChunks(t *testing.T) {
	source := memory.NewChunkStore()
	service := NewIndexService(source, normalisers.DefaultRegistry())
	ctx := context.Background()

	paragraph := strings.Repeat("word ", 2000)
	_, err := service.Index(ctx, domain.IndexRequest{Path: writeBook(t, paragraph), CollectionID: "ethics"})
	require.NoError(t, err)

	target := memory.NewChunkStore()
	target.SetChunkCap(0)
	_, err = service.Copy(ctx, "ethics", target)
	require.NoError(t, err)

	chunk, err := target.GetChunk(ctx, "ethics", "ethics-b0-s0")
	require.NoError(t, err)
	assert.Greater(t, len(chunk.Text), domain.DefaultChunkTextCap)

	toc, err := target.GetTOC(ctx, "ethics")
	require.NoError(t, err)
	require.Len(t, toc.Entries, 1)
	assert.Equal(t, len(chunk.Text), toc.Entries[0].ByteSize)
	assert.Equal(t, checksum.String(chunk.Text), toc.Entries[0].Checksum)
}

// failingWriter fails chunk writes after the first n.
type failingWriter struct {
	*memory.ChunkStore
	remaining int
}

func (w *failingWriter) WriteChunk(ctx context.Context, chunk *domain.Chunk) error {
	if w.remaining == 0 {
		return errors.New("disk full")
	}
	w.remaining--
	return w.ChunkStore.WriteChunk(ctx, chunk)
}

func TestIndexService_Index_FailedRunKeepsPreviousChunks(t *testing.T) {
	store := &failingWriter{ChunkStore: memory.NewChunkStore(), remaining: -1}
	service := NewIndexService(store, normalisers.DefaultRegistry())
	ctx := context.Background()

	_, err := service.Index(ctx, domain.IndexRequest{Path: writeBook(t, bookText), CollectionID: "ethics", PagesPerBlock: 1})
	require.NoError(t, err)
	before, err := store.ListChunkIDs(ctx, "ethics", 0)
	require.NoError(t, err)
	require.Len(t, before, 3)

	store.remaining = 1
	_, err = service.Index(ctx, domain.IndexRequest{Path: writeBook(t, "Only one page now."), CollectionID: "ethics"})
	require.NoError(t, err, "a single chunk fits in the remaining writes")

	store.remaining = 0
	_, err = service.Index(ctx, domain.IndexRequest{Path: writeBook(t, bookText), CollectionID: "ethics", PagesPerBlock: 1})
	require.ErrorContains(t, err, "disk full")

	after, err := store.ListChunkIDs(ctx, "ethics", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ethics-b0-s0"}, after)

	chunk, err := store.GetChunk(ctx, "ethics", "ethics-b0-s0")
	require.NoError(t, err)
	assert.Equal(t, "Only one page now.", chunk.Text)
	_, err = store.GetTOC(ctx, "ethics")
	assert.NoError(t, err)
}
