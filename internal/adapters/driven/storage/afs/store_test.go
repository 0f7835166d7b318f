package afs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

func setupTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir, opts...)
	require.NoError(t, err)
	return store, dir
}

func testChunk(id string) *domain.Chunk {
	return &domain.Chunk{
		CollectionID: "philosophy",
		ChunkID:      id,
		Text:         "The categorical imperative is a central Kantian concept.",
		PageStart:    domain.PageNum(1),
		PageEnd:      domain.PageNum(3),
		Title:        "philosophy block 0 chunk 0",
		CreatedAt:    time.Unix(1700000000, 0).UTC(),
	}
}

func TestNewStore(t *testing.T) {
	_, err := NewStore("  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	store, err := NewStore("mem://localhost/indexes/")
	require.NoError(t, err)
	assert.Equal(t, "mem://localhost/indexes", store.URL())

	dir := t.TempDir()
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.URL(), "file://"))
}

func TestStore_WriteChunk_Layout(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteChunk(ctx, testChunk("philosophy-b0-s0")))

	data, err := os.ReadFile(filepath.Join(dir, "philosophy", "sections", "philosophy-b0-s0.json"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "philosophy", raw["book_id"])
	assert.Equal(t, "philosophy-b0-s0", raw["section_id"])
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	want := testChunk("philosophy-b0-s0")
	require.NoError(t, store.WriteChunk(ctx, want))

	got, err := store.GetChunk(ctx, "philosophy", "philosophy-b0-s0")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ListChunkIDs(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"philosophy-b1-s0", "philosophy-b0-s0", "philosophy-b0-s1"} {
		require.NoError(t, store.WriteChunk(ctx, testChunk(id)))
	}

	ids, err := store.ListChunkIDs(ctx, "philosophy", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"philosophy-b0-s0", "philosophy-b0-s1", "philosophy-b1-s0"}, ids)

	ids, err = store.ListChunkIDs(ctx, "philosophy", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"philosophy-b0-s0"}, ids)
}

func TestStore_UnknownCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.ListChunkIDs(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)

	_, err = store.GetChunk(ctx, "missing", "missing-b0-s0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_EmptyCollection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteTOC(ctx, &domain.TableOfContents{CollectionID: "empty"}))

	ids, err := store.ListChunkIDs(ctx, "empty", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_GetChunk_Capped(t *testing.T) {
	store, _ := setupTestStore(t, WithChunkCap(8))
	ctx := context.Background()

	require.NoError(t, store.WriteChunk(ctx, testChunk("philosophy-b0-s0")))

	got, err := store.GetChunk(ctx, "philosophy", "philosophy-b0-s0")
	require.NoError(t, err)
	assert.Equal(t, "The cate", got.Text)
}

func TestStore_GetChunk_LegacyRecord(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()

	sections := filepath.Join(dir, "history", "sections")
	require.NoError(t, os.MkdirAll(sections, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sections, "sec-1.json"), []byte(`{"text":"Rome fell."}`), 0o644))

	got, err := store.GetChunk(ctx, "history", "sec-1")
	require.NoError(t, err)
	assert.Equal(t, "history", got.CollectionID)
	assert.Equal(t, "sec-1", got.ChunkID)
	assert.Equal(t, "Rome fell.", got.Text)
}

func TestStore_GetChunk_Corrupt(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()

	sections := filepath.Join(dir, "history", "sections")
	require.NoError(t, os.MkdirAll(sections, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sections, "bad.json"), []byte(`{not json`), 0o644))

	_, err := store.GetChunk(ctx, "history", "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_TOC(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetTOC(ctx, "philosophy")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	toc := &domain.TableOfContents{
		CollectionID: "philosophy",
		CreatedAt:    1700000000,
		Entries:      []domain.TOCEntry{{ChunkID: "philosophy-b0-s0", Title: "t", ByteSize: 10}},
	}
	require.NoError(t, store.WriteTOC(ctx, toc))

	got, err := store.GetTOC(ctx, "philosophy")
	require.NoError(t, err)
	assert.Equal(t, toc, got)

	assert.ErrorIs(t, store.WriteTOC(ctx, nil), domain.ErrInvalidInput)
}

func TestStore_DeleteCollection(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteChunk(ctx, testChunk("philosophy-b0-s0")))
	require.NoError(t, store.DeleteCollection(ctx, "philosophy"))
	require.NoError(t, store.DeleteCollection(ctx, "philosophy"))

	_, err := os.Stat(filepath.Join(dir, "philosophy"))
	assert.True(t, os.IsNotExist(err))

	_, err = store.ListChunkIDs(ctx, "philosophy", 0)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestStore_ListCollections(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	ids, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.WriteChunk(ctx, testChunk("philosophy-b0-s0")))
	require.NoError(t, store.WriteTOC(ctx, &domain.TableOfContents{CollectionID: "ethics"}))

	ids, err = store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ethics", "philosophy"}, ids)
}

func TestStore_ListCollections_MissingBase(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "not-yet"))
	require.NoError(t, err)

	ids, err := store.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_DeleteChunks(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"philosophy-b0-s0", "philosophy-b1-s0", "philosophy-b2-s0"} {
		require.NoError(t, store.WriteChunk(ctx, testChunk(id)))
	}

	require.NoError(t, store.DeleteChunks(ctx, "philosophy", []string{"philosophy-b1-s0", "philosophy-b9-s0"}))

	ids, err := store.ListChunkIDs(ctx, "philosophy", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"philosophy-b0-s0", "philosophy-b2-s0"}, ids)
}

func TestStore_GetChunkRaw_Uncapped(t *testing.T) {
	store, _ := setupTestStore(t, WithChunkCap(8))
	ctx := context.Background()

	c := testChunk("philosophy-b0-s0")
	require.NoError(t, store.WriteChunk(ctx, c))

	got, err := store.GetChunkRaw(ctx, "philosophy", "philosophy-b0-s0")
	require.NoError(t, err)
	assert.Equal(t, c.Text, got.Text)

	_, err = store.GetChunkRaw(ctx, "philosophy", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
