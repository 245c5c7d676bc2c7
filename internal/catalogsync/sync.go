// Package catalogsync owns the episode catalog: idempotent upserts, the
// submitted-to-feed flag, and reconciliation against a rendered feed so the
// catalog never drifts from what the feed actually contains.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/canonical"
	"github.com/aurora-audio/feedsmith/internal/models"
	"github.com/aurora-audio/feedsmith/internal/store"
)

const episodesCollection = "episodes"

// Sync is the catalog writer. All catalog mutations in the core go through
// it; episode documents are never deleted here.
type Sync struct {
	docs     store.DocumentStore
	verifier *assets.Verifier
	now      func() time.Time
}

func New(docs store.DocumentStore, verifier *assets.Verifier) *Sync {
	return &Sync{
		docs:     docs,
		verifier: verifier,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Sync) WithClock(now func() time.Time) *Sync {
	s.now = now
	return s
}

// Upsert writes the record with merge semantics. created_at is set on first
// write and never overwritten afterwards; writing the same record twice
// yields the same stored state.
func (s *Sync) Upsert(ctx context.Context, rec models.EpisodeRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("cannot upsert a record with no id")
	}

	doc := rec.ToDoc()
	doc["updated_at"] = s.now().UTC()

	existing, err := s.docs.Get(ctx, episodesCollection, rec.ID)
	switch {
	case errors.Is(err, store.ErrNotExist):
		if rec.CreatedAt.IsZero() {
			doc["created_at"] = s.now().UTC()
		}
	case err != nil:
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	default:
		doc["created_at"] = existing["created_at"]
	}

	if err := s.docs.Set(ctx, episodesCollection, rec.ID, doc, true); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

// MarkSubmitted flips the submitted_to_feed flag for one episode.
func (s *Sync) MarkSubmitted(ctx context.Context, id string, submitted bool) error {
	doc := map[string]any{
		"submitted_to_feed": submitted,
		"updated_at":        s.now().UTC(),
	}
	if err := s.docs.Set(ctx, episodesCollection, id, doc, true); err != nil {
		return fmt.Errorf("mark submitted %s: %w", id, err)
	}
	return nil
}

// Get returns one catalog record.
func (s *Sync) Get(ctx context.Context, id string) (models.EpisodeRecord, error) {
	doc, err := s.docs.Get(ctx, episodesCollection, id)
	if err != nil {
		return models.EpisodeRecord{}, err
	}
	return models.RecordFromDoc(doc), nil
}

// All returns every catalog record.
func (s *Sync) All(ctx context.Context) ([]models.EpisodeRecord, error) {
	docs, err := s.docs.Query(ctx, episodesCollection)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	records := make([]models.EpisodeRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, models.RecordFromDoc(d))
	}
	return records, nil
}

// Publishable returns the records eligible for feed assembly (before asset
// verification, which the assembler performs itself).
func (s *Sync) Publishable(ctx context.Context) ([]models.EpisodeRecord, error) {
	docs, err := s.docs.Query(ctx, episodesCollection, store.Filter{Field: "publishable", Op: "==", Value: true})
	if err != nil {
		return nil, fmt.Errorf("list publishable episodes: %w", err)
	}
	records := make([]models.EpisodeRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, models.RecordFromDoc(d))
	}
	return records, nil
}

// ReconcileReport summarizes what a reconciliation changed.
type ReconcileReport struct {
	FeedItems   int
	Marked      []string
	Unmarked    []string
	Synthesized []string
}

// Reconcile compares the guids in a rendered feed against the catalog and
// makes the catalog match reality: submitted_to_feed is flipped in both
// directions, and feed items with no catalog entry get a record synthesized
// from the item's own fields. Running it twice is a no-op the second time.
func (s *Sync) Reconcile(ctx context.Context, feedXML []byte) (ReconcileReport, error) {
	items, err := parseFeedItems(feedXML)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	report := ReconcileReport{FeedItems: len(items)}

	inFeed := make(map[string]feedItem, len(items))
	for _, item := range items {
		inFeed[item.GUID] = item
	}

	records, err := s.All(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.ID] = true
		_, present := inFeed[rec.ID]
		if rec.SubmittedToFeed == present {
			continue
		}
		if err := s.MarkSubmitted(ctx, rec.ID, present); err != nil {
			return ReconcileReport{}, err
		}
		if present {
			report.Marked = append(report.Marked, rec.ID)
		} else {
			report.Unmarked = append(report.Unmarked, rec.ID)
		}
	}

	for _, item := range items {
		if known[item.GUID] {
			continue
		}
		rec := synthesizeRecord(item, s.now().UTC())
		if err := s.Upsert(ctx, rec); err != nil {
			return ReconcileReport{}, err
		}
		slog.Info("Synthesized catalog record from feed item", "id", item.GUID, "title", item.Title)
		report.Synthesized = append(report.Synthesized, item.GUID)
	}

	slog.Info("Catalog reconciled",
		"feed_items", report.FeedItems,
		"marked", len(report.Marked),
		"unmarked", len(report.Unmarked),
		"synthesized", len(report.Synthesized))
	return report, nil
}

// synthesizeRecord rebuilds a minimal catalog record from a feed item, so a
// lost catalog can be recovered from the live feed. Asset paths come from the
// item's own enclosure and image URLs when they carry one, so a webp
// thumbnail stays webp; the canonical path scheme is the fallback.
func synthesizeRecord(item feedItem, now time.Time) models.EpisodeRecord {
	rec := models.EpisodeRecord{
		ID:              item.GUID,
		Title:           item.Title,
		Summary:         item.Description,
		DescriptionHTML: item.ContentHTML,
		AudioPath:       blobPathFromURL(item.AudioURL, "audio/", models.AudioPath(item.GUID)),
		DescriptionPath: models.DescriptionPath(item.GUID),
		ThumbnailPath:   blobPathFromURL(item.ThumbnailURL, "thumbnails/", models.ThumbnailJPGPath(item.GUID)),
		PubDate:         item.PubDate,
		CreatedAt:       now,
		Publishable:     true,
		SubmittedToFeed: true,
	}
	if p, ok := canonical.Parse(item.GUID); ok {
		rec.Category = p.Category
		rec.Format = p.Format
	}
	if item.DurationSeconds > 0 {
		rec.DurationSeconds = item.DurationSeconds
	}
	return rec
}

// EpisodeStatus is the minimum diagnostic surface: the three booleans an
// operator needs per episode.
type EpisodeStatus struct {
	ID             string
	Assigned       bool
	AssetsComplete bool
	Missing        []string
	InFeed         bool
}

// Status answers "assigned id? all assets present? currently in feed?" for
// one episode.
func (s *Sync) Status(ctx context.Context, id string) (EpisodeStatus, error) {
	st := EpisodeStatus{ID: id}

	rec, err := s.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotExist):
		// No catalog entry; fall through and still report on assets.
	case err != nil:
		return EpisodeStatus{}, err
	default:
		st.Assigned = true
		st.InFeed = rec.SubmittedToFeed
	}

	triad, err := s.verifier.Verify(ctx, id)
	if err != nil {
		return EpisodeStatus{}, err
	}
	st.AssetsComplete = triad.Complete()
	st.Missing = triad.Missing()
	if !st.Assigned {
		// An id with at least one blob under it counts as assigned
		// even before its catalog entry lands.
		st.Assigned = triad.AudioExists
	}
	return st, nil
}
