package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-psy/internal/storage"
)

func TestFSStore_PutGet(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := storage.NewFSStore(base)
	require.NoError(t, err)

	key, err := s.Put(ctx, "results/s-1.json", strings.NewReader(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "results/s-1.json", key)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))

	// No temp files are left next to the blob.
	entries, err := os.ReadDir(filepath.Join(base, "results"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFSStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put(ctx, "k", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "k", strings.NewReader("two"))
	require.NoError(t, err)

	rc, err := s.Get(ctx, "k")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(body))
}

func TestFSStore_NotFound(t *testing.T) {
	s, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "results/missing.json")

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFSStore_KeysStayInsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "blobs")
	s, err := storage.NewFSStore(base)
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.NoError(t, err)

	_, err = s.Put(context.Background(), "", strings.NewReader("x"))
	assert.Error(t, err)
}
