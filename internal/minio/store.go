// Package minio adapts an S3-compatible MinIO server to the pipeline's object store.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// InitMinIOClient initializes and returns a MinIO client
func InitMinIOClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minIO client init error: %w", err)
	}
	slog.Info("MinIO client initialized.", "endpoint", endpoint)
	return client, nil
}

// EnsureBucketExists ensures a bucket exists, creates it if not
func EnsureBucketExists(ctx context.Context, client *minio.Client, bucketName string) error {
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket %s: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
	}
	slog.Info("Created bucket.", "bucket", bucketName)
	return nil
}

// Store reads, writes and presigns objects on a MinIO server.
type Store struct {
	client *minio.Client
}

func NewStore(client *minio.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Scheme() string { return "s3" }

// Get reads the whole object.
func (s *Store) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open s3://%s/%s: %w", bucket, object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("s3://%s/%s: object not found: %w", bucket, object, err)
		}
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Put uploads content, replacing any existing object.
func (s *Store) Put(ctx context.Context, bucket, object string, content []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, object, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// Sign presigns a GET request. The object does not need to exist yet.
func (s *Store) Sign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, object, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign s3://%s/%s: %w", bucket, object, err)
	}
	return u.String(), nil
}

// SignUpload presigns a PUT request. The content type is not part of a MinIO
// presigned PUT, so the uploader's header is accepted as sent.
func (s *Store) SignUpload(ctx context.Context, bucket, object, contentType string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, object, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload to s3://%s/%s: %w", bucket, object, err)
	}
	return u.String(), nil
}
