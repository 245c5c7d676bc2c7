package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aurora-audio/feedsmith/internal/store"
)

// newStores wires the blob and document stores. --local swaps in the
// in-memory implementations for development.
func newStores(ctx context.Context) (store.BlobStore, store.DocumentStore, func(), error) {
	if flagLocal {
		slog.Debug("Using in-memory stores")
		return store.NewMemoryBlobStore(), store.NewMemoryDocumentStore(), func() {}, nil
	}

	blobs, err := store.NewGCSBlobStore(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("blob store: %w", err)
	}

	docs, err := store.NewFirestoreDocumentStore(ctx)
	if err != nil {
		_ = blobs.Close()
		return nil, nil, nil, fmt.Errorf("document store: %w", err)
	}

	cleanup := func() {
		if err := blobs.Close(); err != nil {
			slog.Error("Unable to close blob store", "err", err)
		}
		if err := docs.Close(); err != nil {
			slog.Error("Unable to close document store", "err", err)
		}
	}
	return blobs, docs, cleanup, nil
}
