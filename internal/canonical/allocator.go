package canonical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aurora-audio/feedsmith/internal/models"
	"github.com/aurora-audio/feedsmith/internal/store"
)

// ledgerCollection holds one high-water-mark document per numbering key
// ("ever-phys", "news-phys-20250328"). The ledger is a cache; the blob store
// is ground truth and is always re-checked before an id is handed out.
const ledgerCollection = "ledgers"

// maxProbes bounds the existence-probe loop so a pathological blob listing
// cannot spin the allocator forever.
const maxProbes = 1000

// Allocator computes the next free canonical id for a category and format.
//
// The guarantee is optimistic, not transactional: two concurrent callers can
// observe the same free number, and the loser discovers it when its
// conditional blob write fails. Reallocate is the recovery path for that
// case. What the allocator does guarantee is that it never returns an id
// whose audio blob already exists at probe time, and that it fails closed
// (ErrAllocationUnavailable) whenever it cannot verify freshness.
type Allocator struct {
	blobs store.BlobStore
	docs  store.DocumentStore
	seeds map[models.Category]int
	now   func() time.Time
}

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithSeed sets the starting evergreen sequence for a category that has no
// prior blobs and no ledger entry.
func WithSeed(category models.Category, seed int) AllocatorOption {
	return func(a *Allocator) {
		a.seeds[category] = seed
	}
}

// WithClock overrides the wall clock. News serials are keyed to the UTC day
// this clock reports.
func WithClock(now func() time.Time) AllocatorOption {
	return func(a *Allocator) {
		a.now = now
	}
}

func NewAllocator(blobs store.BlobStore, docs store.DocumentStore, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		blobs: blobs,
		docs:  docs,
		seeds: make(map[models.Category]int),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns the next free canonical id for the category and format.
// The title is not part of the id; it is carried through to the allocation
// log so concurrent jobs can be told apart.
func (a *Allocator) Allocate(ctx context.Context, category string, format models.EpisodeFormat, title string) (string, error) {
	return a.allocate(ctx, category, format, title, 0)
}

// Reallocate retries an allocation after a downstream conditional write
// discovered that lastTried's slot was taken by a concurrent caller. The
// returned id is strictly beyond lastTried.
func (a *Allocator) Reallocate(ctx context.Context, category string, format models.EpisodeFormat, title, lastTried string) (string, error) {
	floor := 0
	if p, ok := Parse(lastTried); ok {
		switch p.Format {
		case models.FormatEvergreen:
			floor = p.Sequence
		case models.FormatNews:
			// A serial from an earlier day must not inflate today's
			// numbering; the serial space resets at the UTC day boundary.
			if p.Date == a.now().UTC().Format("20060102") {
				floor = p.Serial
			}
		}
	}
	return a.allocate(ctx, category, format, title, floor)
}

func (a *Allocator) allocate(ctx context.Context, category string, format models.EpisodeFormat, title string, floor int) (string, error) {
	cat := models.Category(category)
	if !cat.Known() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	switch format {
	case models.FormatEvergreen:
		return a.allocateEvergreen(ctx, cat, title, floor)
	case models.FormatNews:
		return a.allocateNews(ctx, cat, title, floor)
	default:
		return "", fmt.Errorf("unsupported format: %q", format)
	}
}

func (a *Allocator) allocateEvergreen(ctx context.Context, cat models.Category, title string, floor int) (string, error) {
	ledgerKey := "ever-" + cat.Slug()
	high := a.ledgerHighWater(ctx, ledgerKey)

	stem := fmt.Sprintf("ever-%s-", cat.Slug())
	blobHigh, err := a.scanHighWater(ctx, stem, func(id string) (int, bool) {
		p, ok := Parse(id)
		if !ok || p.Format != models.FormatEvergreen {
			return 0, false
		}
		return p.Sequence, true
	})
	if err != nil {
		return "", fmt.Errorf("%w: scan existing audio blobs: %v", ErrAllocationUnavailable, err)
	}

	next := max(high, blobHigh, a.seeds[cat]-1, floor) + 1
	if next > 999999 {
		return "", fmt.Errorf("evergreen sequence space exhausted for %s", cat)
	}

	id, err := a.probeFree(ctx, next, func(n int) string { return EvergreenID(cat, n) })
	if err != nil {
		return "", err
	}

	a.updateLedger(ctx, ledgerKey, idSequence(id))
	slog.Info("Allocated canonical id", "id", id, "category", cat, "format", models.FormatEvergreen, "title", title)
	return id, nil
}

func (a *Allocator) allocateNews(ctx context.Context, cat models.Category, title string, floor int) (string, error) {
	day := a.now().UTC()
	date := day.Format("20060102")
	ledgerKey := fmt.Sprintf("news-%s-%s", cat.Slug(), date)
	high := a.ledgerHighWater(ctx, ledgerKey)

	stem := fmt.Sprintf("news-%s-%s-", cat.Slug(), date)
	blobHigh, err := a.scanHighWater(ctx, stem, func(id string) (int, bool) {
		p, ok := Parse(id)
		if !ok || p.Format != models.FormatNews || p.Date != date {
			return 0, false
		}
		return p.Serial, true
	})
	if err != nil {
		return "", fmt.Errorf("%w: scan existing audio blobs: %v", ErrAllocationUnavailable, err)
	}

	next := max(high, blobHigh, floor) + 1
	if next > 9999 {
		return "", fmt.Errorf("news serial space exhausted for %s on %s", cat, date)
	}

	id, err := a.probeFree(ctx, next, func(n int) string { return NewsID(cat, day, n) })
	if err != nil {
		return "", err
	}

	a.updateLedger(ctx, ledgerKey, idSerial(id))
	slog.Info("Allocated canonical id", "id", id, "category", cat, "format", models.FormatNews, "date", date, "title", title)
	return id, nil
}

// probeFree verifies candidate ids against the blob store immediately before
// returning. The ledger and the listing above may both be stale; this final
// probe is the collision guard.
func (a *Allocator) probeFree(ctx context.Context, start int, idFor func(int) string) (string, error) {
	for n := start; n < start+maxProbes; n++ {
		id := idFor(n)
		exists, err := a.blobs.Exists(ctx, models.AudioPath(id))
		if err != nil {
			return "", fmt.Errorf("%w: probe %s: %v", ErrAllocationUnavailable, id, err)
		}
		if !exists {
			return id, nil
		}
		slog.Warn("Canonical id slot already taken, advancing", "id", id)
	}
	return "", fmt.Errorf("%w: no free slot within %d probes", ErrAllocationUnavailable, maxProbes)
}

// scanHighWater lists audio blobs under the stem and returns the highest
// number extracted from their ids.
func (a *Allocator) scanHighWater(ctx context.Context, stem string, extract func(id string) (int, bool)) (int, error) {
	paths, err := a.blobs.List(ctx, models.AudioPrefix(stem))
	if err != nil {
		return 0, err
	}
	high := 0
	for _, p := range paths {
		name := strings.TrimPrefix(p, "audio/")
		id := strings.TrimSuffix(name, ".mp3")
		if n, ok := extract(id); ok && n > high {
			high = n
		}
	}
	return high, nil
}

func (a *Allocator) ledgerHighWater(ctx context.Context, key string) int {
	doc, err := a.docs.Get(ctx, ledgerCollection, key)
	if errors.Is(err, store.ErrNotExist) {
		return 0
	}
	if err != nil {
		// The ledger is only a cache; a read failure just means a
		// slower scan, not a failed allocation.
		slog.Warn("Ledger read failed, falling back to blob scan", "key", key, "err", err)
		return 0
	}
	switch v := doc["high_water"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (a *Allocator) updateLedger(ctx context.Context, key string, highWater int) {
	doc := map[string]any{
		"high_water": highWater,
		"updated_at": a.now().UTC(),
	}
	if err := a.docs.Set(ctx, ledgerCollection, key, doc, true); err != nil {
		slog.Warn("Ledger update failed", "key", key, "high_water", highWater, "err", err)
	}
}

func idSequence(id string) int {
	p, _ := Parse(id)
	return p.Sequence
}

func idSerial(id string) int {
	p, _ := Parse(id)
	return p.Serial
}
