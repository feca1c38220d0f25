// Package storage provides the blob stores documents are written to.
//
// Every backend gives Put all-or-nothing semantics from the caller's view:
// either the object is durable under the key and a locator is returned, or
// nothing remains reachable under that key. Failures are reported as
// *common.StorageError.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/server/config"
	"github.com/dmitrijs2005/docvault/internal/server/models"
)

// BlobStore stores raw bytes under a key.
type BlobStore interface {
	// Put writes the file at localPath under key.
	Put(ctx context.Context, localPath string, key models.StorageKey) (*models.BlobLocator, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key models.StorageKey) error
	// PresignGet returns a time-limited retrieval URL for key.
	PresignGet(ctx context.Context, key models.StorageKey, ttl time.Duration) (string, error)
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageBackend {
	case config.BackendS3:
		return NewS3Store(ctx, S3Options{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			BaseEndpoint:    cfg.S3BaseEndpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
			Timeout:         cfg.StorageTimeout,
		})
	case config.BackendMinio:
		return NewMinioStore(MinioOptions{
			Endpoint:        cfg.S3BaseEndpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Timeout:         cfg.StorageTimeout,
		})
	case config.BackendLocal:
		return NewLocalStore(cfg.LocalStorageDir)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrConfig, cfg.StorageBackend)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func storageErr(op string, key models.StorageKey, err error) error {
	return &common.StorageError{Op: op, Key: key.String(), Cause: err}
}
