// Package local_test tests the local filesystem blob store.
package local_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/forum-corpus/internal/storage"
	"github.com/JakeFAU/forum-corpus/internal/storage/local"
)

var _ storage.BlobStore = (*local.BlobStore)(nil)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})
	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "archive", "corpora")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})
	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	baseDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: baseDir})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		uri, err := store.PutObject(context.Background(), "corpus/run-1/preprocessed.csv", storage.ContentTypeCSV,
			strings.NewReader("text,topic\nhello,tech\n"))
		require.NoError(t, err)

		want := filepath.Join(baseDir, "corpus", "run-1", "preprocessed.csv")
		assert.Equal(t, "file://"+filepath.ToSlash(want), uri)
		data, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.Equal(t, "text,topic\nhello,tech\n", string(data))

		entries, err := os.ReadDir(filepath.Dir(want))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), " ", "", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "../escape.csv", "", strings.NewReader("x"))
		assert.ErrorContains(t, err, "path traversal")
	})

	t.Run("ReaderError", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "bad.csv", "", failingReader{})
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(baseDir, "bad.csv"))
		assert.True(t, errors.Is(statErr, os.ErrNotExist))
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.PutObject(ctx, "late.csv", "", strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
