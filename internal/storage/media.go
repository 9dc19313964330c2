package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/textmint/textmint/config"
)

// MediaStore puts and removes media objects in an S3-compatible bucket
// (R2, MinIO, S3). Object keys are prefixed per user.
type MediaStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMediaStore(cfg config.StorageConfig) (*MediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "storage: client init")
	}
	return &MediaStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket when absent. Safe to call on every startup.
func (s *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "storage: bucket check")
	}
	if exists {
		return nil
	}
	return errors.Wrap(s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}), "storage: bucket create")
}

// Put uploads one object and returns its public URL.
func (s *MediaStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "storage: put object")
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

// Remove deletes one object.
func (s *MediaStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	return errors.Wrap(err, "storage: remove object")
}
