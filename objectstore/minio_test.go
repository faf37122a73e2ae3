package objectstore_test

import (
	"context"
	"errors"
	"io"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-invite/objectstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket      string
	key         string
	body        []byte
	size        int64
	contentType string
	err         error
}

func (f *fakePutter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket = bucketName
	f.key = objectName
	f.body = body
	f.size = objectSize
	f.contentType = opts.ContentType
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func TestObjectBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      objectstore.Config
		expected string
	}{
		{
			name:     "insecure endpoint",
			cfg:      objectstore.Config{Endpoint: "localhost:9000", Bucket: "invites"},
			expected: "http://localhost:9000/invites",
		},
		{
			name:     "secure endpoint",
			cfg:      objectstore.Config{Endpoint: "s3.example.com", Bucket: "invites", Secure: true},
			expected: "https://s3.example.com/invites",
		},
		{
			name:     "public base url wins",
			cfg:      objectstore.Config{Endpoint: "minio:9000", Bucket: "invites", PublicBaseURL: "https://cdn.example.com/qr/"},
			expected: "https://cdn.example.com/qr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, objectstore.ObjectBaseURL(tt.cfg))
		})
	}
}

func TestMinioStore_Put(t *testing.T) {
	client := &fakePutter{}
	store := objectstore.NewWithClient(client, objectstore.Config{
		Endpoint: "localhost:9000",
		Bucket:   "invites",
	})

	data := []byte{0x89, 'P', 'N', 'G'}
	url, err := store.Put(context.Background(), "qr/abc.png", data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/invites/qr/abc.png", url)
	assert.Equal(t, "invites", client.bucket)
	assert.Equal(t, "qr/abc.png", client.key)
	assert.Equal(t, data, client.body)
	assert.Equal(t, int64(len(data)), client.size)
	assert.Equal(t, "image/png", client.contentType)
}

func TestMinioStore_PutErrors(t *testing.T) {
	t.Run("empty key", func(t *testing.T) {
		client := &fakePutter{}
		store := objectstore.NewWithClient(client, objectstore.Config{Endpoint: "localhost:9000", Bucket: "invites"})

		_, err := store.Put(context.Background(), "", []byte("x"), "image/png")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryBadInput, richErr.Category)
		assert.Empty(t, client.key)
	})

	t.Run("upload failure", func(t *testing.T) {
		client := &fakePutter{err: errors.New("bucket does not exist")}
		store := objectstore.NewWithClient(client, objectstore.Config{Endpoint: "localhost:9000", Bucket: "invites"})

		_, err := store.Put(context.Background(), "qr/abc.png", []byte("x"), "image/png")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "failed to upload object", richErr.Message)
		assert.Equal(t, "qr/abc.png", richErr.Metadata["key"])
	})
}

func TestNew_Validation(t *testing.T) {
	_, err := objectstore.New(objectstore.Config{Bucket: "invites"})
	assert.Error(t, err)

	_, err = objectstore.New(objectstore.Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	store, err := objectstore.New(objectstore.Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "invites",
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
}
