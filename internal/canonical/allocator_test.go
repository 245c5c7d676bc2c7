package canonical

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aurora-audio/feedsmith/internal/models"
	"github.com/aurora-audio/feedsmith/internal/store"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func writeAudio(t *testing.T, blobs store.BlobStore, id string) {
	t.Helper()
	if err := blobs.Write(context.Background(), models.AudioPath(id), []byte("mp3"), "audio/mpeg"); err != nil {
		t.Fatalf("write audio for %s: %v", id, err)
	}
}

func TestAllocateEvergreenContinuesFromExistingBlobs(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	for i := 250001; i <= 250005; i++ {
		writeAudio(t, blobs, fmt.Sprintf("ever-phys-%06d", i))
	}

	a := NewAllocator(blobs, docs)
	id, err := a.Allocate(context.Background(), "physics", models.FormatEvergreen, "Test Episode")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if id != "ever-phys-250006" {
		t.Errorf("Expected ever-phys-250006, got %s", id)
	}
}

func TestAllocateEvergreenStartsFromSeed(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()

	a := NewAllocator(blobs, docs, WithSeed(models.CategoryMathematics, 100))
	id, err := a.Allocate(context.Background(), "mathematics", models.FormatEvergreen, "Test Episode")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if id != "ever-math-000100" {
		t.Errorf("Expected ever-math-000100, got %s", id)
	}
}

func TestAllocateNeverReturnsTakenID(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()

	// Stale ledger claiming a lower high-water mark than reality.
	err := docs.Set(context.Background(), "ledgers", "ever-phys", map[string]any{"high_water": 1}, false)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 8; i++ {
		writeAudio(t, blobs, fmt.Sprintf("ever-phys-%06d", i))
	}

	a := NewAllocator(blobs, docs)
	ctx := context.Background()
	id, err := a.Allocate(ctx, "physics", models.FormatEvergreen, "Test Episode")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	exists, err := blobs.Exists(ctx, models.AudioPath(id))
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Errorf("Allocate returned %s whose audio blob already exists", id)
	}
	if id != "ever-phys-000009" {
		t.Errorf("Expected ever-phys-000009, got %s", id)
	}
}

func TestAllocateMonotonic(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	a := NewAllocator(blobs, docs)
	ctx := context.Background()

	prev := 0
	for i := 0; i < 5; i++ {
		id, err := a.Allocate(ctx, "biology", models.FormatEvergreen, "Test Episode")
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		p, ok := Parse(id)
		if !ok {
			t.Fatalf("Allocate returned non-canonical id %q", id)
		}
		if p.Sequence <= prev {
			t.Errorf("Sequence not strictly increasing: %d after %d", p.Sequence, prev)
		}
		prev = p.Sequence
		// Simulate the downstream upload that claims the slot.
		writeAudio(t, blobs, id)
	}
}

func TestAllocateNewsSerials(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	day := time.Date(2025, 3, 28, 10, 0, 0, 0, time.UTC)
	a := NewAllocator(blobs, docs, WithClock(fixedClock(day)))
	ctx := context.Background()

	id, err := a.Allocate(ctx, "physics", models.FormatNews, "Test Episode")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if id != "news-phys-20250328-0001" {
		t.Errorf("Expected news-phys-20250328-0001, got %s", id)
	}

	writeAudio(t, blobs, id)

	id, err = a.Allocate(ctx, "physics", models.FormatNews, "Test Episode")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if id != "news-phys-20250328-0002" {
		t.Errorf("Expected news-phys-20250328-0002, got %s", id)
	}
}

func TestAllocateNewsSerialResetsNextDay(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	day := time.Date(2025, 3, 28, 23, 0, 0, 0, time.UTC)
	clock := &struct{ now time.Time }{now: day}

	a := NewAllocator(blobs, docs, WithClock(func() time.Time { return clock.now }))
	ctx := context.Background()

	id, err := a.Allocate(ctx, "chemistry", models.FormatNews, "Test Episode")
	if err != nil {
		t.Fatal(err)
	}
	writeAudio(t, blobs, id)

	clock.now = day.Add(24 * time.Hour)
	id, err = a.Allocate(ctx, "chemistry", models.FormatNews, "Test Episode")
	if err != nil {
		t.Fatal(err)
	}
	if id != "news-chem-20250329-0001" {
		t.Errorf("Expected serial to reset to 0001 on the next day, got %s", id)
	}
}

func TestAllocateEvergreenSequenceExhausted(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	writeAudio(t, blobs, "ever-phys-999999")

	a := NewAllocator(blobs, docs)
	_, err := a.Allocate(context.Background(), "physics", models.FormatEvergreen, "Test Episode")
	if err == nil {
		t.Fatal("Expected an error past the six-digit sequence space, got nil")
	}
	if errors.Is(err, ErrAllocationUnavailable) {
		t.Errorf("Exhaustion is not a store outage, got %v", err)
	}
}

func TestReallocateIgnoresStaleNewsSerialAfterRollover(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	day := time.Date(2025, 3, 28, 23, 0, 0, 0, time.UTC)
	clock := &struct{ now time.Time }{now: day}

	a := NewAllocator(blobs, docs, WithClock(func() time.Time { return clock.now }))
	ctx := context.Background()

	lost, err := a.Allocate(ctx, "physics", models.FormatNews, "Test Episode")
	if err != nil {
		t.Fatal(err)
	}
	writeAudio(t, blobs, lost)

	// The retry lands after midnight UTC; yesterday's serial is not a floor
	// for the new day.
	clock.now = day.Add(2 * time.Hour)
	id, err := a.Reallocate(ctx, "physics", models.FormatNews, "Test Episode", lost)
	if err != nil {
		t.Fatalf("Reallocate: %v", err)
	}
	if id != "news-phys-20250329-0001" {
		t.Errorf("Expected news-phys-20250329-0001, got %s", id)
	}
}

func TestAllocateUnknownCategory(t *testing.T) {
	a := NewAllocator(store.NewMemoryBlobStore(), store.NewMemoryDocumentStore())
	_, err := a.Allocate(context.Background(), "astrology", models.FormatEvergreen, "Test Episode")
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("Expected ErrInvalidCategory, got %v", err)
	}
}

// failingBlobStore simulates an unreachable blob store.
type failingBlobStore struct {
	store.BlobStore
}

func (f failingBlobStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (f failingBlobStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestAllocateFailsClosedWhenBlobStoreUnreachable(t *testing.T) {
	a := NewAllocator(failingBlobStore{}, store.NewMemoryDocumentStore())
	_, err := a.Allocate(context.Background(), "physics", models.FormatEvergreen, "Test Episode")
	if !errors.Is(err, ErrAllocationUnavailable) {
		t.Errorf("Expected ErrAllocationUnavailable, got %v", err)
	}
}

func TestReallocateSkipsPastLostSlot(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	a := NewAllocator(blobs, docs)
	ctx := context.Background()

	id, err := a.Allocate(ctx, "physics", models.FormatEvergreen, "Test Episode")
	if err != nil {
		t.Fatal(err)
	}

	// A concurrent job won the race for this slot.
	writeAudio(t, blobs, id)

	next, err := a.Reallocate(ctx, "physics", models.FormatEvergreen, "Test Episode", id)
	if err != nil {
		t.Fatalf("Reallocate: %v", err)
	}
	if next == id {
		t.Errorf("Reallocate returned the lost slot %s again", id)
	}
	p, _ := Parse(id)
	pn, _ := Parse(next)
	if pn.Sequence <= p.Sequence {
		t.Errorf("Reallocate returned %s, not beyond %s", next, id)
	}
}

func TestAllocateConcurrentCallers(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	ctx := context.Background()

	// Two allocator instances racing in the same category may observe the
	// same free number; the guarantee is that neither returns an id whose
	// audio blob already exists. Global uniqueness across the racers is
	// settled by the downstream conditional write, not here.
	a1 := NewAllocator(blobs, docs)
	a2 := NewAllocator(blobs, docs)

	id1, err := a1.Allocate(ctx, "physics", models.FormatEvergreen, "Test Episode")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := a2.Allocate(ctx, "physics", models.FormatEvergreen, "Test Episode")
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{id1, id2} {
		exists, err := blobs.Exists(ctx, models.AudioPath(id))
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Errorf("Allocate returned taken id %s", id)
		}
	}

	// First racer's upload lands; the loser reallocates past it.
	writeAudio(t, blobs, id1)
	if id2 == id1 {
		next, err := a2.Reallocate(ctx, "physics", models.FormatEvergreen, "Test Episode", id2)
		if err != nil {
			t.Fatal(err)
		}
		if next == id1 {
			t.Errorf("Reallocate returned the taken slot %s", id1)
		}
	}
}
