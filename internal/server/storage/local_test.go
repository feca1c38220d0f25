package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/server/config"
	"github.com/dmitrijs2005/docvault/internal/server/models"
)

func TestLocalStore_PutDeleteCycle(t *testing.T) {
	st, err := NewLocalStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	src := tempFile(t, "document body")
	loc, err := st.Put(context.Background(), src, "0b1c.pdf")
	require.NoError(t, err)

	dst := filepath.Join(st.Root(), "0b1c.pdf")
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "document body", string(got))
	assert.True(t, strings.HasPrefix(loc.RetrievalURL, "file://"))
	assert.True(t, strings.HasSuffix(loc.RetrievalURL, "/0b1c.pdf"))

	u, err := st.PresignGet(context.Background(), "0b1c.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, loc.RetrievalURL, u)

	require.NoError(t, st.Delete(context.Background(), "0b1c.pdf"))
	_, err = os.Stat(dst)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, st.Delete(context.Background(), "0b1c.pdf"), "missing key is not an error")

	_, err = st.PresignGet(context.Background(), "0b1c.pdf", time.Minute)
	require.ErrorIs(t, err, common.ErrStorage)
}

func TestLocalStore_FailedPutLeavesNothing(t *testing.T) {
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Put(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), "k.pdf")
	require.ErrorIs(t, err, common.ErrStorage)

	entries, err := os.ReadDir(st.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_RejectsTraversalKeys(t *testing.T) {
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	src := tempFile(t, "x")

	for _, key := range []string{"", ".", "..", "../escape.pdf", "a/b.pdf"} {
		_, err := st.Put(context.Background(), src, models.StorageKey(key))
		require.ErrorIs(t, err, common.ErrStorage, key)
		require.ErrorIs(t, err, errInvalidKey, key)
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = st.Put(ctx, tempFile(t, "x"), "k.pdf")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{StorageBackend: config.BackendLocal, LocalStorageDir: t.TempDir()}
	st, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, st)

	_, err = New(context.Background(), &config.Config{StorageBackend: "tape"})
	require.ErrorIs(t, err, common.ErrConfig)
}
