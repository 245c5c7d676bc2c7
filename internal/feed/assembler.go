// Package feed assembles the podcast syndication feed from catalog records
// and renders it as RSS 2.0 with the iTunes, Atom, content, Media RSS and
// Podcasting 2.0 namespaces.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/config"
	"github.com/aurora-audio/feedsmith/internal/models"
	"github.com/aurora-audio/feedsmith/internal/store"
)

// FeedBuildError marks a structural failure: the whole build is abandoned.
// Per-record data problems never produce this; they skip the one record.
type FeedBuildError struct {
	Cause error
}

func (e *FeedBuildError) Error() string {
	return fmt.Sprintf("feed build failed: %v", e.Cause)
}

func (e *FeedBuildError) Unwrap() error {
	return e.Cause
}

// Item is one feed entry, fully resolved: real enclosure byte size, public
// URLs, truncated description bodies.
type Item struct {
	GUID            string
	Title           string
	Summary         string
	ContentHTML     string
	AudioURL        string
	AudioLength     int64
	ThumbnailURL    string
	DurationSeconds int
	PubDate         time.Time
}

// Skip records why a catalog record was left out of a build.
type Skip struct {
	ID     string
	Reason string
}

// FeedDocument is a derived, regenerable artifact: the ordered items of one
// feed build. It has no identity beyond "most recent build" and is always
// safe to discard and rebuild from the catalog.
type FeedDocument struct {
	BuildID string
	BuiltAt time.Time
	Channel config.Channel
	// SelfURL is the public URL the feed is served from, for the atom
	// self-link. The channel link stays the show's website.
	SelfURL string
	Items   []Item
	Skipped []Skip
}

// GUIDs returns the canonical ids present in the document, in feed order.
func (d *FeedDocument) GUIDs() []string {
	ids := make([]string, len(d.Items))
	for i, item := range d.Items {
		ids[i] = item.GUID
	}
	return ids
}

// Assembler turns catalog records into feed documents. Stateless transform;
// the ordering policy comes from the channel config, never inferred.
type Assembler struct {
	blobs    store.BlobStore
	verifier *assets.Verifier
	channel  config.Channel
	now      func() time.Time
}

func NewAssembler(blobs store.BlobStore, verifier *assets.Verifier, channel config.Channel) *Assembler {
	return &Assembler{
		blobs:    blobs,
		verifier: verifier,
		channel:  channel,
		now:      time.Now,
	}
}

// Build selects the records that are publishable and pass asset
// verification, orders them per the channel's pinned-guid policy, and
// disambiguates duplicate titles. A bad record skips that record; only
// structural problems (invalid channel categories) fail the build.
func (a *Assembler) Build(ctx context.Context, records []models.EpisodeRecord) (*FeedDocument, error) {
	for _, c := range a.channel.Categories {
		if !ValidAppleCategory(c.Name, c.Subcategory) {
			return nil, &FeedBuildError{Cause: fmt.Errorf("invalid itunes category %q / %q", c.Name, c.Subcategory)}
		}
	}

	doc := &FeedDocument{
		BuildID: uuid.NewString(),
		BuiltAt: a.now().UTC(),
		Channel: a.channel,
		SelfURL: a.blobs.PublicURL(a.channel.FeedPath),
	}

	for _, rec := range records {
		item, skip := a.buildItem(ctx, rec)
		if skip != nil {
			slog.Warn("Episode excluded from feed", "id", skip.ID, "reason", skip.Reason, "build_id", doc.BuildID)
			doc.Skipped = append(doc.Skipped, *skip)
			continue
		}
		doc.Items = append(doc.Items, item)
	}

	a.orderItems(doc.Items)
	disambiguateTitles(doc.Items)

	slog.Info("Feed assembled", "build_id", doc.BuildID, "items", len(doc.Items), "skipped", len(doc.Skipped))
	return doc, nil
}

func (a *Assembler) buildItem(ctx context.Context, rec models.EpisodeRecord) (Item, *Skip) {
	if rec.ID == "" {
		return Item{}, &Skip{ID: "(no id)", Reason: "record has no canonical id"}
	}
	if !rec.Publishable {
		return Item{}, &Skip{ID: rec.ID, Reason: "not publishable"}
	}
	if rec.Title == "" {
		return Item{}, &Skip{ID: rec.ID, Reason: "record has no title"}
	}

	triad, err := a.verifier.Verify(ctx, rec.ID)
	if err != nil {
		return Item{}, &Skip{ID: rec.ID, Reason: fmt.Sprintf("asset verification failed: %v", err)}
	}
	if !triad.Complete() {
		return Item{}, &Skip{ID: rec.ID, Reason: (&assets.IncompleteAssetsError{ID: rec.ID, Missing: triad.Missing()}).Error()}
	}

	pubDate := rec.PubDate
	if pubDate.IsZero() {
		pubDate = rec.CreatedAt
	}

	return Item{
		GUID:            rec.ID,
		Title:           rec.Title,
		Summary:         Truncate(rec.Summary, DescriptionLimit),
		ContentHTML:     Truncate(rec.DescriptionHTML, DescriptionLimit),
		AudioURL:        a.blobs.PublicURL(triad.AudioPath),
		AudioLength:     triad.AudioSize,
		ThumbnailURL:    a.blobs.PublicURL(triad.ThumbnailPath),
		DurationSeconds: rec.DurationSeconds,
		PubDate:         pubDate,
	}, nil
}

// orderItems applies the caller-supplied ordering deterministically: pinned
// guids first, in their configured order, then everything else newest first
// with guid as the tiebreak.
func (a *Assembler) orderItems(items []Item) {
	pinnedRank := make(map[string]int, len(a.channel.PinnedGUIDs))
	for i, g := range a.channel.PinnedGUIDs {
		pinnedRank[g] = i
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, pi := pinnedRank[items[i].GUID]
		rj, pj := pinnedRank[items[j].GUID]
		if pi && pj {
			return ri < rj
		}
		if pi != pj {
			return pi
		}
		if !items[i].PubDate.Equal(items[j].PubDate) {
			return items[i].PubDate.After(items[j].PubDate)
		}
		return items[i].GUID < items[j].GUID
	})
}

// disambiguateTitles appends " (2)", " (3)", ... to repeated visible titles.
// Some directories deduplicate by title within a feed, so two items must
// never share one.
func disambiguateTitles(items []Item) {
	emitted := make(map[string]bool, len(items))
	for i := range items {
		candidate := items[i].Title
		// A suffixed candidate can itself collide with a literal title
		// like "X (2)" already in the feed, so count until the title is free.
		for n := 2; emitted[candidate]; n++ {
			candidate = fmt.Sprintf("%s (%d)", items[i].Title, n)
		}
		items[i].Title = candidate
		emitted[candidate] = true
	}
}

// Publish renders the document and writes it to the channel's feed path.
func (a *Assembler) Publish(ctx context.Context, doc *FeedDocument) ([]byte, error) {
	data, err := Render(doc)
	if err != nil {
		return nil, err
	}
	if err := a.blobs.Write(ctx, a.channel.FeedPath, data, "application/rss+xml; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("publish feed to %s: %w", a.channel.FeedPath, err)
	}
	slog.Info("Feed published", "path", a.channel.FeedPath, "bytes", len(data), "build_id", doc.BuildID)
	return data, nil
}
