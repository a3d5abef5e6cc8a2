package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectNotFound is returned by GCSStore.Get when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// GCSStore reads, writes and signs Cloud Storage objects.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates the storage client with application default credentials.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Scheme() string { return "gs" }

// Get reads the whole object.
func (s *GCSStore) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Put writes content unconditionally; an existing object is replaced.
func (s *GCSStore) Put(ctx context.Context, bucket, object string, content []byte, contentType string) error {
	writer := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(content); err != nil {
		_ = writer.Close()
		return objectError("write", bucket, object, err)
	}
	if err := writer.Close(); err != nil {
		return objectError("finalize write of", bucket, object, err)
	}
	return nil
}

// Sign returns a V4 signed GET URL. The object does not need to exist yet.
func (s *GCSStore) Sign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for gs://%s/%s: %w", bucket, object, err)
	}
	return url, nil
}

// SignUpload returns a V4 signed PUT URL. The uploader must send the same content type.
func (s *GCSStore) SignUpload(ctx context.Context, bucket, object, contentType string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign upload URL for gs://%s/%s: %w", bucket, object, err)
	}
	return url, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func objectError(action, bucket, object string, err error) error {
	return fmt.Errorf("failed to %s gs://%s/%s: %w", action, bucket, object, describeAPIError(err))
}

// describeAPIError adds the HTTP status to Cloud Storage API errors.
func describeAPIError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden:
			return fmt.Errorf("permission denied (403): %w", err)
		case http.StatusPreconditionFailed:
			return fmt.Errorf("precondition failed (412): %w", err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("rate limited (429): %w", err)
		}
	}
	return err
}
