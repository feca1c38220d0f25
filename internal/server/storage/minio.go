package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dmitrijs2005/docvault/internal/server/models"
)

// newMinioClient is a seam for tests.
var newMinioClient = func(endpoint string, opts *minio.Options) (minioAPI, error) {
	return minio.New(endpoint, opts)
}

// minioAPI is the subset of *minio.Client used by MinioStore.
type minioAPI interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinioOptions configures a MinioStore.
type MinioOptions struct {
	// Endpoint is a URL such as "http://127.0.0.1:9000"; the scheme selects TLS.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Timeout         time.Duration
}

// MinioStore stores blobs in a MinIO (or other S3-compatible) bucket.
type MinioStore struct {
	client minioAPI
	base   *url.URL
	opts   MinioOptions
}

var _ BlobStore = (*MinioStore)(nil)

func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	base, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse minio endpoint %q: %w", opts.Endpoint, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("minio endpoint %q has no host", opts.Endpoint)
	}

	client, err := newMinioClient(base.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: base.Scheme == "https",
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &MinioStore{client: client, base: base, opts: opts}, nil
}

func (m *MinioStore) Put(ctx context.Context, localPath string, key models.StorageKey) (*models.BlobLocator, error) {
	ctx, cancel := withTimeout(ctx, m.opts.Timeout)
	defer cancel()

	_, err := m.client.FPutObject(ctx, m.opts.Bucket, key.String(), localPath, minio.PutObjectOptions{})
	if err != nil {
		_ = m.client.RemoveObject(context.WithoutCancel(ctx), m.opts.Bucket, key.String(), minio.RemoveObjectOptions{})
		return nil, storageErr("put", key, err)
	}

	return &models.BlobLocator{
		Key:          key,
		RetrievalURL: m.base.JoinPath(m.opts.Bucket, key.String()).String(),
	}, nil
}

func (m *MinioStore) Delete(ctx context.Context, key models.StorageKey) error {
	ctx, cancel := withTimeout(ctx, m.opts.Timeout)
	defer cancel()

	if err := m.client.RemoveObject(ctx, m.opts.Bucket, key.String(), minio.RemoveObjectOptions{}); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key models.StorageKey, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.opts.Bucket, key.String(), ttl, url.Values{})
	if err != nil {
		return "", storageErr("presign", key, err)
	}
	if u == nil {
		return "", storageErr("presign", key, errors.New("empty presigned url"))
	}
	return u.String(), nil
}
