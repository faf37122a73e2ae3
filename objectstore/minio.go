package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the MinIO/S3 connection options
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Secure        bool
	PublicBaseURL string
}

// Putter is the subset of *minio.Client used by MinioStore
type Putter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioStore uploads blobs to a bucket and returns their public URL
type MinioStore struct {
	client  Putter
	bucket  string
	baseURL string
}

// New connects to the configured endpoint
func New(cfg Config) (*MinioStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("object store endpoint is required", errors.CategoryBadInput)
	}

	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("object store bucket is required", errors.CategoryBadInput)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create object store client").
			WithMetadata(map[string]any{"endpoint": cfg.Endpoint})
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient builds a store around an existing client
func NewWithClient(client Putter, cfg Config) *MinioStore {
	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: ObjectBaseURL(cfg),
	}
}

// ObjectBaseURL returns the URL prefix objects are served from:
// PublicBaseURL when set, otherwise http(s)://<endpoint>/<bucket>.
func ObjectBaseURL(cfg Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
}

// Put uploads data under key and returns the object URL. There is no retry;
// the caller bounds the call with ctx.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("object key is required", errors.CategoryBadInput)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to upload object").
			WithMetadata(map[string]any{
				"bucket": s.bucket,
				"key":    key,
			})
	}

	return s.baseURL + "/" + key, nil
}
