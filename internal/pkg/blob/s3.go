package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// S3Store keeps payloads in a MinIO / S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store ensures the bucket exists and returns the store.
func NewS3Store(ctx context.Context, client *minio.Client, bucket string) (*S3Store, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return &S3Store{client: client, bucket: bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, data []byte, originalName string, contentType string) (Ref, error) {
	key := newObjectName(originalName)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Ref{}, fmt.Errorf("failed to upload object: %w", err)
	}

	return Ref{ObjectKey: key}, nil
}

func (s *S3Store) Open(ctx context.Context, ref Ref) (io.ReadCloser, int64, error) {
	if ref.ObjectKey == "" {
		return nil, 0, ErrNotFound
	}

	obj, err := s.client.GetObject(ctx, s.bucket, ref.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; Stat surfaces missing keys before any bytes flow.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	return obj, info.Size, nil
}
