package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSBlobStore implements BlobStore on a single Google Cloud Storage bucket.
type GCSBlobStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// NewGCSBlobStore creates a blob store for the bucket named by
// FEEDSMITH_GCS_BUCKET. FEEDSMITH_CDN_DOMAIN, when set, overrides the
// storage.googleapis.com public URL base.
func NewGCSBlobStore(ctx context.Context) (*GCSBlobStore, error) {
	bucket := os.Getenv("FEEDSMITH_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("FEEDSMITH_GCS_BUCKET environment variable not set")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	s := &GCSBlobStore{
		client:    client,
		bucket:    bucket,
		cdnDomain: strings.TrimRight(os.Getenv("FEEDSMITH_CDN_DOMAIN"), "/"),
	}
	slog.Debug("GCS blob store initialized", "bucket", bucket, "cdn_domain", s.cdnDomain)
	return s, nil
}

func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

func (s *GCSBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.Stat(ctx, path)
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GCSBlobStore) Stat(ctx context.Context, path string) (BlobInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return BlobInfo{}, ErrNotExist
	}
	if err != nil {
		return BlobInfo{}, fmt.Errorf("failed to stat gs://%s/%s: %w", s.bucket, path, err)
	}
	return BlobInfo{
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}, nil
}

func (s *GCSBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", s.bucket, path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, path, err)
	}
	return data, nil
}

func (s *GCSBlobStore) Write(ctx context.Context, path string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.bucket, path, err)
	}
	return nil
}

func (s *GCSBlobStore) PublicURL(path string) string {
	if s.cdnDomain != "" {
		return "https://" + s.cdnDomain + "/" + path
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
}

func (s *GCSBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s*: %w", s.bucket, prefix, err)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}
