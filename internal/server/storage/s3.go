package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/docvault/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Presigner is the subset of *s3.PresignClient used by S3Store.
type s3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures an S3Store.
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// BaseEndpoint targets an S3-compatible service (e.g. "http://127.0.0.1:9000").
	// When set, addressing is path-style.
	BaseEndpoint string
	UsePathStyle bool
	// Timeout bounds each request; zero means no adapter timeout.
	Timeout time.Duration
}

// S3Store stores blobs in an S3 bucket.
type S3Store struct {
	client    s3API
	presigner s3Presigner
	opts      S3Options
}

var _ BlobStore = (*S3Store)(nil)

// NewS3Store builds the AWS client from static credentials.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		} else {
			o.UsePathStyle = opts.UsePathStyle
		}
	})

	return &S3Store{
		client:    client,
		presigner: newS3PresignClient(client),
		opts:      opts,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, localPath string, key models.StorageKey) (*models.BlobLocator, error) {
	ctx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	f, err := os.Open(localPath)
	if err != nil {
		return nil, storageErr("put", key, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, storageErr("put", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key.String()),
		Body:          f,
		ContentLength: aws.Int64(fi.Size()),
	})
	if err != nil {
		// Nothing may stay reachable under key after a failed put.
		_ = s.remove(context.WithoutCancel(ctx), key)
		return nil, storageErr("put", key, err)
	}

	return &models.BlobLocator{Key: key, RetrievalURL: s.objectURL(key)}, nil
}

func (s *S3Store) Delete(ctx context.Context, key models.StorageKey) error {
	ctx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.remove(ctx, key); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

func (s *S3Store) remove(ctx context.Context, key models.StorageKey) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key.String()),
	})
	return err
}

func (s *S3Store) PresignGet(ctx context.Context, key models.StorageKey, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key.String()),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", storageErr("presign", key, err)
	}
	if req == nil || req.URL == "" {
		return "", storageErr("presign", key, errors.New("empty presigned url"))
	}
	return req.URL, nil
}

// objectURL is the canonical, unsigned location of key.
func (s *S3Store) objectURL(key models.StorageKey) string {
	if s.opts.BaseEndpoint != "" {
		u, err := url.JoinPath(s.opts.BaseEndpoint, s.opts.Bucket, key.String())
		if err == nil {
			return u
		}
		return strings.TrimRight(s.opts.BaseEndpoint, "/") + "/" + s.opts.Bucket + "/" + key.String()
	}
	if s.opts.UsePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.opts.Region, s.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}
