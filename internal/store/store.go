// Package store defines the blob-store and document-store abstractions the
// core depends on, with Google Cloud implementations and an in-memory
// implementation for tests and local development.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotExist is returned when a blob or document is not present.
var ErrNotExist = errors.New("store: does not exist")

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

// BlobStore is the object-store surface the core consumes. Paths are
// folder-qualified names like "audio/ever-phys-000001.mp3".
type BlobStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Stat(ctx context.Context, path string) (BlobInfo, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
	List(ctx context.Context, prefix string) ([]string, error)
}

// Filter is a single field predicate for DocumentStore queries. Op uses
// Firestore operator syntax ("==", "<", ">=", ...).
type Filter struct {
	Field string
	Op    string
	Value any
}

// DocumentStore is the keyed document surface backing the episode catalog
// and the numbering ledger.
type DocumentStore interface {
	Get(ctx context.Context, collection, key string) (map[string]any, error)
	Set(ctx context.Context, collection, key string, doc map[string]any, merge bool) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]map[string]any, error)
}
