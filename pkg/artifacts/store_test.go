package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPutAndGet(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	defer store.Close()

	work := t.TempDir()
	archive := writeFixture(t, work, "loader.zip", "binary payload")
	checksum := writeFixture(t, work, "loader.zip.sha256", "feedface")

	meta, err := store.Put(context.Background(), "run1", "Binary", []string{archive, checksum})
	require.NoError(t, err)
	require.Len(t, meta.Files, 2)
	assert.Equal(t, "loader.zip", meta.Files[0].Name)
	assert.Equal(t, int64(len("binary payload")), meta.Files[0].Size)

	digest := sha256.Sum256([]byte("binary payload"))
	assert.Equal(t, hex.EncodeToString(digest[:]), meta.Files[0].Sha256)

	loaded, err := store.Get("run1", "Binary")
	require.NoError(t, err)
	assert.Equal(t, meta.Files, loaded.Files)

	stored, err := os.ReadFile(store.FilePath(loaded, "loader.zip"))
	require.NoError(t, err)
	assert.Equal(t, "binary payload", string(stored))
}

func TestPutRejectsEmptyFileList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Put(context.Background(), "run1", "Binary", nil)
	assert.Error(t, err)
}

func TestGetMissing(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get("run1", "Binary")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	defer store.Close()

	work := t.TempDir()
	first := writeFixture(t, work, "a.zip", "a")
	second := writeFixture(t, work, "b.zip", "b")

	_, err = store.Put(context.Background(), "run1", "Binary", []string{first})
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "run2", "Binary", []string{second})
	require.NoError(t, err)

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	runs := []string{all[0].Run, all[1].Run}
	assert.ElementsMatch(t, []string{"run1", "run2"}, runs)
}
