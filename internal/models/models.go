package models

import (
	"fmt"
	"time"
)

// Category is one of the fixed subject areas episodes are produced under.
type Category string

const (
	CategoryBiology         Category = "biology"
	CategoryChemistry       Category = "chemistry"
	CategoryComputerScience Category = "computer-science"
	CategoryMathematics     Category = "mathematics"
	CategoryPhysics         Category = "physics"
)

// categorySlugs maps each category to the short slug embedded in canonical
// ids. The mapping is a static table, never inferred from input.
var categorySlugs = map[Category]string{
	CategoryBiology:         "bio",
	CategoryChemistry:       "chem",
	CategoryComputerScience: "compsci",
	CategoryMathematics:     "math",
	CategoryPhysics:         "phys",
}

var slugCategories = func() map[string]Category {
	m := make(map[string]Category, len(categorySlugs))
	for c, s := range categorySlugs {
		m[s] = c
	}
	return m
}()

// Slug returns the short identifier-safe slug for the category, or "" if the
// category is unknown.
func (c Category) Slug() string {
	return categorySlugs[c]
}

// Known reports whether the category is one of the supported set.
func (c Category) Known() bool {
	_, ok := categorySlugs[c]
	return ok
}

// CategoryFromSlug resolves a slug like "phys" back to its category.
func CategoryFromSlug(slug string) (Category, bool) {
	c, ok := slugCategories[slug]
	return c, ok
}

// Categories returns all supported categories.
func Categories() []Category {
	return []Category{
		CategoryBiology,
		CategoryChemistry,
		CategoryComputerScience,
		CategoryMathematics,
		CategoryPhysics,
	}
}

// EpisodeFormat distinguishes the two canonical numbering schemes.
type EpisodeFormat string

const (
	FormatEvergreen EpisodeFormat = "evergreen"
	FormatNews      EpisodeFormat = "news"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (EpisodeFormat, error) {
	switch EpisodeFormat(s) {
	case FormatEvergreen, FormatNews:
		return EpisodeFormat(s), nil
	}
	return "", fmt.Errorf("unsupported format: %q (expected evergreen or news)", s)
}

// EpisodeRecord is the catalog entity for a single episode. The canonical id
// is the primary key; all asset blobs use it as their filename stem.
type EpisodeRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	Category Category      `json:"category"`
	Format   EpisodeFormat `json:"format"`

	DurationSeconds int `json:"duration_seconds"`

	// Description is authored as markdown; the HTML body and the plain
	// summary are derived from it once, at construction.
	DescriptionMarkdown string `json:"description_markdown"`
	DescriptionHTML     string `json:"description_html"`
	Summary             string `json:"summary"`

	AudioPath       string `json:"audio_path"`
	DescriptionPath string `json:"description_path"`
	ThumbnailPath   string `json:"thumbnail_path"`

	PubDate   time.Time `json:"pub_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Publishable     bool `json:"publishable"`
	SubmittedToFeed bool `json:"submitted_to_feed"`
}

// ToDoc converts the record to the flat document shape stored in the
// document store.
func (r EpisodeRecord) ToDoc() map[string]any {
	return map[string]any{
		"id":                   r.ID,
		"title":                r.Title,
		"category":             string(r.Category),
		"format":               string(r.Format),
		"duration_seconds":     r.DurationSeconds,
		"description_markdown": r.DescriptionMarkdown,
		"description_html":     r.DescriptionHTML,
		"summary":              r.Summary,
		"audio_path":           r.AudioPath,
		"description_path":     r.DescriptionPath,
		"thumbnail_path":       r.ThumbnailPath,
		"pub_date":             r.PubDate,
		"created_at":           r.CreatedAt,
		"updated_at":           r.UpdatedAt,
		"publishable":          r.Publishable,
		"submitted_to_feed":    r.SubmittedToFeed,
	}
}

// RecordFromDoc rebuilds an EpisodeRecord from a stored document. Missing or
// mistyped fields resolve to zero values here, once, so no other component
// has to guess at document shape.
func RecordFromDoc(doc map[string]any) EpisodeRecord {
	return EpisodeRecord{
		ID:                  docString(doc, "id"),
		Title:               docString(doc, "title"),
		Category:            Category(docString(doc, "category")),
		Format:              EpisodeFormat(docString(doc, "format")),
		DurationSeconds:     docInt(doc, "duration_seconds"),
		DescriptionMarkdown: docString(doc, "description_markdown"),
		DescriptionHTML:     docString(doc, "description_html"),
		Summary:             docString(doc, "summary"),
		AudioPath:           docString(doc, "audio_path"),
		DescriptionPath:     docString(doc, "description_path"),
		ThumbnailPath:       docString(doc, "thumbnail_path"),
		PubDate:             docTime(doc, "pub_date"),
		CreatedAt:           docTime(doc, "created_at"),
		UpdatedAt:           docTime(doc, "updated_at"),
		Publishable:         docBool(doc, "publishable"),
		SubmittedToFeed:     docBool(doc, "submitted_to_feed"),
	}
}

func docString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func docBool(doc map[string]any, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return false
}

func docInt(doc map[string]any, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func docTime(doc map[string]any, key string) time.Time {
	if v, ok := doc[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
