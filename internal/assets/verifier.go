// Package assets verifies that an episode's three required blobs (audio,
// description, thumbnail) exist before the episode is eligible for the feed.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aurora-audio/feedsmith/internal/models"
	"github.com/aurora-audio/feedsmith/internal/store"
)

// AssetTriad is the computed existence state of an episode's three assets.
// Transient; never persisted.
type AssetTriad struct {
	ID string

	AudioPath   string
	AudioExists bool
	AudioSize   int64

	DescriptionPath   string
	DescriptionExists bool

	// ThumbnailPath is the JPG path, or the WebP path when only the
	// fallback exists.
	ThumbnailPath   string
	ThumbnailExists bool
}

// Complete reports whether all three assets resolve.
func (t AssetTriad) Complete() bool {
	return t.AudioExists && t.DescriptionExists && t.ThumbnailExists
}

// Missing names the asset kinds that did not resolve.
func (t AssetTriad) Missing() []string {
	var missing []string
	if !t.AudioExists {
		missing = append(missing, "audio")
	}
	if !t.DescriptionExists {
		missing = append(missing, "description")
	}
	if !t.ThumbnailExists {
		missing = append(missing, "thumbnail")
	}
	return missing
}

// IncompleteAssetsError is the named condition for an episode with a partial
// asset triad, so operators can tell "not yet finished" from "broken".
type IncompleteAssetsError struct {
	ID      string
	Missing []string
}

func (e *IncompleteAssetsError) Error() string {
	return fmt.Sprintf("episode %s is missing assets: %s", e.ID, strings.Join(e.Missing, ", "))
}

// Verifier checks asset existence against the blob store. Side-effect-free.
type Verifier struct {
	blobs store.BlobStore
}

func NewVerifier(blobs store.BlobStore) *Verifier {
	return &Verifier{blobs: blobs}
}

// Verify probes the three canonical asset paths for id. Thumbnails are
// probed at the .jpg path first, then the .webp fallback.
func (v *Verifier) Verify(ctx context.Context, id string) (AssetTriad, error) {
	triad := AssetTriad{
		ID:              id,
		AudioPath:       models.AudioPath(id),
		DescriptionPath: models.DescriptionPath(id),
		ThumbnailPath:   models.ThumbnailJPGPath(id),
	}

	info, err := v.blobs.Stat(ctx, triad.AudioPath)
	switch {
	case err == nil:
		triad.AudioExists = true
		triad.AudioSize = info.Size
	case !errors.Is(err, store.ErrNotExist):
		return AssetTriad{}, fmt.Errorf("verify audio for %s: %w", id, err)
	}

	triad.DescriptionExists, err = v.blobs.Exists(ctx, triad.DescriptionPath)
	if err != nil {
		return AssetTriad{}, fmt.Errorf("verify description for %s: %w", id, err)
	}

	triad.ThumbnailExists, err = v.blobs.Exists(ctx, triad.ThumbnailPath)
	if err != nil {
		return AssetTriad{}, fmt.Errorf("verify thumbnail for %s: %w", id, err)
	}
	if !triad.ThumbnailExists {
		webp := models.ThumbnailWebPPath(id)
		ok, err := v.blobs.Exists(ctx, webp)
		if err != nil {
			return AssetTriad{}, fmt.Errorf("verify thumbnail fallback for %s: %w", id, err)
		}
		if ok {
			triad.ThumbnailExists = true
			triad.ThumbnailPath = webp
		}
	}

	return triad, nil
}

// Gate is Verify plus the publishability check: it returns an
// IncompleteAssetsError when any asset is missing.
func (v *Verifier) Gate(ctx context.Context, id string) (AssetTriad, error) {
	triad, err := v.Verify(ctx, id)
	if err != nil {
		return AssetTriad{}, err
	}
	if !triad.Complete() {
		return triad, &IncompleteAssetsError{ID: id, Missing: triad.Missing()}
	}
	return triad, nil
}
