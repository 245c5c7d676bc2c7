package models

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var descriptionMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var spacePattern = regexp.MustCompile(`\s+`)

const summaryLimit = 500

// NewEpisodeRecord builds a fully-resolved record from raw episode metadata.
// All derived fields (HTML body, plain summary, asset paths) are computed
// here so stored documents never carry half-resolved state.
func NewEpisodeRecord(id, title string, category Category, format EpisodeFormat, markdown string, durationSeconds int, pubDate time.Time) (EpisodeRecord, error) {
	htmlBody, err := RenderDescriptionHTML(markdown)
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("render description for %s: %w", id, err)
	}

	return EpisodeRecord{
		ID:                  id,
		Title:               strings.TrimSpace(title),
		Category:            category,
		Format:              format,
		DurationSeconds:     durationSeconds,
		DescriptionMarkdown: markdown,
		DescriptionHTML:     htmlBody,
		Summary:             PlainSummary(htmlBody),
		AudioPath:           AudioPath(id),
		DescriptionPath:     DescriptionPath(id),
		ThumbnailPath:       ThumbnailJPGPath(id),
		PubDate:             pubDate,
	}, nil
}

// RenderDescriptionHTML converts an episode's markdown description to HTML.
func RenderDescriptionHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// PlainSummary strips markup from an HTML description and returns a short
// plain-text summary, cut at a word boundary.
func PlainSummary(htmlBody string) string {
	plain := tagPattern.ReplaceAllString(htmlBody, " ")
	plain = html.UnescapeString(plain)
	plain = strings.TrimSpace(spacePattern.ReplaceAllString(plain, " "))

	runes := []rune(plain)
	if len(runes) <= summaryLimit {
		return plain
	}

	cut := summaryLimit
	for cut > 0 && runes[cut] != ' ' {
		cut--
	}
	if cut == 0 {
		cut = summaryLimit
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
