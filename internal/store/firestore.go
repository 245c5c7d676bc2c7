package store

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreDocumentStore implements DocumentStore on Cloud Firestore.
type FirestoreDocumentStore struct {
	client *firestore.Client
}

// NewFirestoreDocumentStore connects to the project named by
// FEEDSMITH_FIRESTORE_PROJECT, falling back to GOOGLE_CLOUD_PROJECT.
func NewFirestoreDocumentStore(ctx context.Context) (*FirestoreDocumentStore, error) {
	project := os.Getenv("FEEDSMITH_FIRESTORE_PROJECT")
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if project == "" {
		return nil, fmt.Errorf("FEEDSMITH_FIRESTORE_PROJECT environment variable not set")
	}

	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreDocumentStore{client: client}, nil
}

func (s *FirestoreDocumentStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreDocumentStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	snap, err := s.client.Collection(collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, key, err)
	}
	return snap.Data(), nil
}

func (s *FirestoreDocumentStore) Set(ctx context.Context, collection, key string, doc map[string]any, merge bool) error {
	ref := s.client.Collection(collection).Doc(key)
	var err error
	if merge {
		_, err = ref.Set(ctx, doc, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, doc)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreDocumentStore) Query(ctx context.Context, collection string, filters ...Filter) ([]map[string]any, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}

	var docs []map[string]any
	it := q.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		docs = append(docs, snap.Data())
	}
	return docs, nil
}
