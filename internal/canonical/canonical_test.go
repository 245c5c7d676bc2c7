package canonical

import (
	"testing"
	"time"

	"github.com/aurora-audio/feedsmith/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		id       string
		ok       bool
		format   models.EpisodeFormat
		category models.Category
		sequence int
		date     string
		serial   int
	}{
		{id: "ever-phys-250042", ok: true, format: models.FormatEvergreen, category: models.CategoryPhysics, sequence: 250042},
		{id: "ever-compsci-000001", ok: true, format: models.FormatEvergreen, category: models.CategoryComputerScience, sequence: 1},
		{id: "news-chem-20250328-0007", ok: true, format: models.FormatNews, category: models.CategoryChemistry, date: "20250328", serial: 7},
		{id: "news-bio-20251231-9999", ok: true, format: models.FormatNews, category: models.CategoryBiology, date: "20251231", serial: 9999},

		// Legacy dated form without a serial is not canonical.
		{id: "news-phys-28032025", ok: false},
		// Unknown slug.
		{id: "ever-geol-000001", ok: false},
		// Wrong digit counts.
		{id: "ever-phys-0001", ok: false},
		{id: "news-phys-20250328-001", ok: false},
		// Impossible date.
		{id: "news-phys-20251341-0001", ok: false},
		// Opaque job identifiers.
		{id: "b3f1c9d2-1f6e-4a7e-9c1c-2a2b3c4d5e6f", ok: false},
		{id: "", ok: false},
	}

	for _, tc := range tests {
		p, ok := Parse(tc.id)
		if ok != tc.ok {
			t.Errorf("Parse(%q) ok = %t, want %t", tc.id, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		if p.Format != tc.format {
			t.Errorf("Parse(%q) format = %s, want %s", tc.id, p.Format, tc.format)
		}
		if p.Category != tc.category {
			t.Errorf("Parse(%q) category = %s, want %s", tc.id, p.Category, tc.category)
		}
		if p.Sequence != tc.sequence {
			t.Errorf("Parse(%q) sequence = %d, want %d", tc.id, p.Sequence, tc.sequence)
		}
		if p.Date != tc.date {
			t.Errorf("Parse(%q) date = %s, want %s", tc.id, p.Date, tc.date)
		}
		if p.Serial != tc.serial {
			t.Errorf("Parse(%q) serial = %d, want %d", tc.id, p.Serial, tc.serial)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonical("ever-math-000123") {
		t.Error("Expected ever-math-000123 to be canonical")
	}
	if IsCanonical("job-1234") {
		t.Error("Expected job-1234 to not be canonical")
	}
}

func TestCategoryOf(t *testing.T) {
	cat, ok := CategoryOf("news-compsci-20250328-0001")
	if !ok || cat != models.CategoryComputerScience {
		t.Errorf("CategoryOf = %s, %t; want computer-science, true", cat, ok)
	}
	if _, ok := CategoryOf("not-an-id"); ok {
		t.Error("Expected CategoryOf to fail for a non-canonical id")
	}
}

func TestFormatIDs(t *testing.T) {
	if got := EvergreenID(models.CategoryPhysics, 42); got != "ever-phys-000042" {
		t.Errorf("EvergreenID = %q, want ever-phys-000042", got)
	}

	day := time.Date(2025, 3, 28, 16, 0, 0, 0, time.UTC)
	if got := NewsID(models.CategoryPhysics, day, 3); got != "news-phys-20250328-0003" {
		t.Errorf("NewsID = %q, want news-phys-20250328-0003", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	id := EvergreenID(models.CategoryChemistry, 999999)
	p, ok := Parse(id)
	if !ok || p.Sequence != 999999 || p.Category != models.CategoryChemistry {
		t.Errorf("Round trip failed for %q: %+v, %t", id, p, ok)
	}
}
