package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const gcsLogPrefix = "blob:gcs"

// GCSBackend serves gs:// URIs.
type GCSBackend struct {
	client *storage.Client
}

// NewGCSBackend creates a client from application default credentials.
func NewGCSBackend(ctx context.Context) (*GCSBackend, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create storage client: %w", gcsLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - GCS backend ready", gcsLogPrefix))
	return &GCSBackend{client: client}, nil
}

// Close releases the underlying client.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}

func (b *GCSBackend) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := b.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (b *GCSBackend) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := b.client.Bucket(bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *GCSBackend) Put(ctx context.Context, bucket, key string, data []byte) error {
	w := b.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType(key)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
