package filex

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "blobs", "documents")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")

	first, err := EnsureDir(dir)
	require.NoError(t, err)

	second, err := EnsureDir(dir)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestStatRegular(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "a.pdf")
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0o600))

	fi, err := StatRegular(file)
	require.NoError(t, err)
	require.EqualValues(t, 3, fi.Size())

	_, err = StatRegular(filepath.Join(tmp, "missing.pdf"))
	require.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = StatRegular(tmp)
	require.True(t, errors.Is(err, fs.ErrNotExist), "directory is not a regular file")
}
