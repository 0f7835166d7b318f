package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

func writeBook(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := "Groundwork of the metaphysic of morals.\nNothing can be conceived good without qualification except a good will." +
		"\f" +
		"The categorical imperative is a single one.\nAct only according to that maxim."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIndexCmd_IndexesTextFile(t *testing.T) {
	store := setupTestServices(t)
	path := writeBook(t, "kant.txt")

	out, err := execute(t, "index", path, "--book", "kant")

	require.NoError(t, err)
	assert.Contains(t, out, `Indexed kant.txt into "kant": 2 pages`)

	ids, err := store.ListChunkIDs(context.Background(), "kant", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, ids)

	toc, err := store.GetTOC(context.Background(), "kant")
	require.NoError(t, err)
	assert.Equal(t, "kant.txt", toc.SourceFile)
	assert.Len(t, toc.Entries, len(ids))
}

func TestIndexCmd_DefaultsBookToFileName(t *testing.T) {
	store := setupTestServices(t)
	path := writeBook(t, "Kant Groundwork.txt")

	out, err := execute(t, "index", path)

	require.NoError(t, err)
	assert.Contains(t, out, `into "kant-groundwork"`)
	_, err = store.GetTOC(context.Background(), "kant-groundwork")
	assert.NoError(t, err)
}

func TestIndexCmd_Upload(t *testing.T) {
	setupTestServices(t)
	target := memory.NewChunkStore()
	var opened string
	openTarget = func(location string) (driven.ChunkStore, error) {
		opened = location
		return target, nil
	}
	path := writeBook(t, "kant.txt")

	out, err := execute(t, "index", path, "--book", "kant", "--upload", "mem://localhost/indexes")

	require.NoError(t, err)
	assert.Equal(t, "mem://localhost/indexes", opened)
	assert.Contains(t, out, "to mem://localhost/indexes")

	ids, err := target.ListChunkIDs(context.Background(), "kant", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, ids)
	_, err = target.GetTOC(context.Background(), "kant")
	assert.NoError(t, err)
}

func TestIndexCmd_UploadNotConfigured(t *testing.T) {
	setupTestServices(t)
	path := writeBook(t, "kant.txt")

	_, err := execute(t, "index", path, "--book", "kant", "--upload", "mem://localhost/x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload not configured")
}

func TestIndexCmd_OpenTargetError(t *testing.T) {
	setupTestServices(t)
	openTarget = func(string) (driven.ChunkStore, error) { return nil, errors.New("bucket missing") }
	path := writeBook(t, "kant.txt")

	_, err := execute(t, "index", path, "--book", "kant", "--upload", "s3://nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")
}

func TestIndexCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index", filepath.Join(t.TempDir(), "absent.txt"), "--book", "kant")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index failed")
}

func TestIndexCmd_NoService(t *testing.T) {
	setupTestServices(t)
	SetServices(Services{})

	_, err := execute(t, "index", "book.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")
}

func TestBookFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"ethics.pdf", "ethics"},
		{"/books/Kant Groundwork.pdf", "kant-groundwork"},
		{"  Spaced   Out .txt", "spaced-out"},
		{"notes", "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, bookFromPath(tt.path))
		})
	}
}
