package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/docvault/internal/filex"
	"github.com/dmitrijs2005/docvault/internal/server/models"
)

var errInvalidKey = errors.New("invalid storage key")

// LocalStore keeps blobs as files in one directory. Writes go to a temp file
// that is fsynced and atomically renamed onto the key.
type LocalStore struct {
	root string
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute storage directory.
func (l *LocalStore) Root() string { return l.root }

func (l *LocalStore) path(key models.StorageKey) (string, error) {
	k := key.String()
	if k == "" || k == "." || k == ".." || filepath.Base(k) != k {
		return "", fmt.Errorf("%w: %q", errInvalidKey, k)
	}
	return filepath.Join(l.root, k), nil
}

func (l *LocalStore) Put(ctx context.Context, localPath string, key models.StorageKey) (*models.BlobLocator, error) {
	dst, err := l.path(key)
	if err != nil {
		return nil, storageErr("put", key, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, storageErr("put", key, err)
	}

	if err := l.write(localPath, dst); err != nil {
		return nil, storageErr("put", key, err)
	}

	return &models.BlobLocator{Key: key, RetrievalURL: fileURL(dst)}, nil
}

func (l *LocalStore) write(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(l.root, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (l *LocalStore) Delete(ctx context.Context, key models.StorageKey) error {
	p, err := l.path(key)
	if err != nil {
		return storageErr("delete", key, err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageErr("delete", key, err)
	}
	return nil
}

// PresignGet returns the file URL; local files carry no signature or expiry.
func (l *LocalStore) PresignGet(ctx context.Context, key models.StorageKey, ttl time.Duration) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", storageErr("presign", key, err)
	}
	if _, err := os.Stat(p); err != nil {
		return "", storageErr("presign", key, err)
	}
	return fileURL(p), nil
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
