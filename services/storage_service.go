package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"motomar-api/logger"
)

// ErrStorageUnavailable is returned when no object storage is configured.
var ErrStorageUnavailable = errors.New("image storage is not configured")

// StoredObject identifies an uploaded image.
type StoredObject struct {
	Key string
	URL string
}

type ImageStorage interface {
	Upload(ctx context.Context, prefix, fileName, contentType string, data []byte) (StoredObject, error)
	Remove(ctx context.Context, key string) error
}

type MinioImageStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioImageStorage connects to MinIO/S3 and makes sure the bucket exists.
// publicURL, when set, replaces the endpoint as the base of returned URLs.
func NewMinioImageStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*MinioImageStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", bucket, err)
		}
	}

	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}

	logger.Log.Infow("image storage ready", "endpoint", endpoint, "bucket", bucket)
	return &MinioImageStorage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *MinioImageStorage) Upload(ctx context.Context, prefix, fileName, contentType string, data []byte) (StoredObject, error) {
	key := ObjectKey(prefix, fileName)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	return StoredObject{Key: key, URL: fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)}, nil
}

func (s *MinioImageStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// ObjectKey builds a unique key under prefix that keeps the file's extension.
func ObjectKey(prefix, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), ext)
}
