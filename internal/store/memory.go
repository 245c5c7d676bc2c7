package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memBlob struct {
	data        []byte
	contentType string
	updated     time.Time
}

// MemoryBlobStore is a mutex-guarded in-memory BlobStore used by tests and
// by --local mode.
type MemoryBlobStore struct {
	blobs   map[string]memBlob
	baseURL string
	mu      sync.RWMutex
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs:   make(map[string]memBlob),
		baseURL: "memory://",
	}
}

func (s *MemoryBlobStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path]
	return ok, nil
}

func (s *MemoryBlobStore) Stat(_ context.Context, path string) (BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	if !ok {
		return BlobInfo{}, ErrNotExist
	}
	return BlobInfo{Size: int64(len(b.data)), ContentType: b.contentType, Updated: b.updated}, nil
}

func (s *MemoryBlobStore) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	if !ok {
		return nil, ErrNotExist
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (s *MemoryBlobStore) Write(_ context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[path] = memBlob{data: buf, contentType: contentType, updated: time.Now()}
	return nil
}

func (s *MemoryBlobStore) PublicURL(path string) string {
	return s.baseURL + path
}

func (s *MemoryBlobStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for p := range s.blobs {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// MemoryDocumentStore is an in-memory DocumentStore with Firestore-like
// merge semantics.
type MemoryDocumentStore struct {
	collections map[string]map[string]map[string]any
	mu          sync.RWMutex
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]map[string]map[string]any),
	}
}

func (s *MemoryDocumentStore) Get(_ context.Context, collection, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, ErrNotExist
	}
	return copyDoc(doc), nil
}

func (s *MemoryDocumentStore) Set(_ context.Context, collection, key string, doc map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		s.collections[collection] = coll
	}
	existing, ok := coll[key]
	if !ok || !merge {
		coll[key] = copyDoc(doc)
		return nil
	}
	for k, v := range doc {
		existing[k] = v
	}
	return nil
}

func (s *MemoryDocumentStore) Query(_ context.Context, collection string, filters ...Filter) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.collections[collection]))
	for k := range s.collections[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var docs []map[string]any
	for _, k := range keys {
		doc := s.collections[collection][k]
		if matchesFilters(doc, filters) {
			docs = append(docs, copyDoc(doc))
		}
	}
	return docs, nil
}

func matchesFilters(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		// The memory store only needs equality; the Firestore
		// implementation supports the full operator set.
		if f.Op != "==" {
			return false
		}
		if doc[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
