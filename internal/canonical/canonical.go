// Package canonical implements the canonical episode identifier grammar and
// the allocator that hands out new identifiers.
//
// Two formats exist:
//
//	ever-{slug}-{6-digit sequence}         e.g. ever-phys-250042
//	news-{slug}-{YYYYMMDD}-{4-digit serial} e.g. news-phys-20250328-0001
//
// Within a category, evergreen sequences are strictly increasing and never
// reused; within a category and date, news serials are strictly increasing
// and never reused.
package canonical

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aurora-audio/feedsmith/internal/models"
)

var (
	everPattern = regexp.MustCompile(`^ever-([a-z]{3,7})-(\d{6})$`)
	newsPattern = regexp.MustCompile(`^news-([a-z]{3,7})-(\d{8})-(\d{4})$`)
)

// ParsedID is the decomposed form of a canonical identifier.
type ParsedID struct {
	Raw      string
	Format   models.EpisodeFormat
	Category models.Category

	// Sequence is set for evergreen ids.
	Sequence int

	// Date (YYYYMMDD) and Serial are set for news ids.
	Date   string
	Serial int
}

// Parse decomposes id into its parts. The second return value is false when
// the id is not canonical, which includes ids whose category slug is not in
// the static table (legacy and opaque job identifiers).
func Parse(id string) (ParsedID, bool) {
	if m := everPattern.FindStringSubmatch(id); m != nil {
		cat, ok := models.CategoryFromSlug(m[1])
		if !ok {
			return ParsedID{}, false
		}
		seq, _ := strconv.Atoi(m[2])
		return ParsedID{Raw: id, Format: models.FormatEvergreen, Category: cat, Sequence: seq}, true
	}
	if m := newsPattern.FindStringSubmatch(id); m != nil {
		cat, ok := models.CategoryFromSlug(m[1])
		if !ok {
			return ParsedID{}, false
		}
		if _, err := time.Parse("20060102", m[2]); err != nil {
			return ParsedID{}, false
		}
		serial, _ := strconv.Atoi(m[3])
		return ParsedID{Raw: id, Format: models.FormatNews, Category: cat, Date: m[2], Serial: serial}, true
	}
	return ParsedID{}, false
}

// IsCanonical reports whether id matches one of the two canonical formats.
func IsCanonical(id string) bool {
	_, ok := Parse(id)
	return ok
}

// CategoryOf returns the category encoded in a canonical id.
func CategoryOf(id string) (models.Category, bool) {
	p, ok := Parse(id)
	if !ok {
		return "", false
	}
	return p.Category, true
}

// EvergreenID formats an evergreen identifier.
func EvergreenID(category models.Category, sequence int) string {
	return fmt.Sprintf("ever-%s-%06d", category.Slug(), sequence)
}

// NewsID formats a news identifier for the given publication day.
func NewsID(category models.Category, day time.Time, serial int) string {
	return fmt.Sprintf("news-%s-%s-%04d", category.Slug(), day.UTC().Format("20060102"), serial)
}
