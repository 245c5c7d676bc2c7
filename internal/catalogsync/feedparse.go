package catalogsync

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// feedItem is the lenient parse shape for one item of a rendered feed.
// Element names are unqualified so the decoder matches them whatever
// namespace prefix the feed used.
type feedItem struct {
	GUID            string
	Title           string
	Description     string
	ContentHTML     string
	AudioURL        string
	ThumbnailURL    string
	DurationSeconds int
	PubDate         time.Time
}

type parsedFeed struct {
	Channel struct {
		Items []parsedItem `xml:"item"`
	} `xml:"channel"`
}

type parsedItem struct {
	Title       string `xml:"title"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Duration    string `xml:"duration"`
	Content     string `xml:"encoded"`
	Enclosure   struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
	Image struct {
		Href string `xml:"href,attr"`
	} `xml:"image"`
}

// parseFeedItems extracts the items of a rendered feed. A malformed feed
// document fails the parse; individual items with odd fields degrade to
// zero values instead.
func parseFeedItems(feedXML []byte) ([]feedItem, error) {
	var parsed parsedFeed
	if err := xml.Unmarshal(feedXML, &parsed); err != nil {
		return nil, fmt.Errorf("parse feed xml: %w", err)
	}

	items := make([]feedItem, 0, len(parsed.Channel.Items))
	for _, p := range parsed.Channel.Items {
		guid := strings.TrimSpace(p.GUID)
		if guid == "" {
			continue
		}
		item := feedItem{
			GUID:            guid,
			Title:           strings.TrimSpace(p.Title),
			Description:     strings.TrimSpace(p.Description),
			ContentHTML:     strings.TrimSpace(p.Content),
			AudioURL:        p.Enclosure.URL,
			ThumbnailURL:    p.Image.Href,
			DurationSeconds: parseDuration(p.Duration),
		}
		if t, err := time.Parse(time.RFC1123Z, strings.TrimSpace(p.PubDate)); err == nil {
			item.PubDate = t
		}
		items = append(items, item)
	}
	return items, nil
}

// blobPathFromURL recovers the blob path from a public asset URL by locating
// the storage prefix ("audio/", "thumbnails/") in the URL path. Public URLs
// may or may not carry a bucket segment before the prefix, so the prefix is
// the anchor, not the path root.
func blobPathFromURL(rawURL, prefix, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	if i := strings.Index(u.Path, "/"+prefix); i >= 0 {
		return u.Path[i+1:]
	}
	return fallback
}

// parseDuration accepts both plain seconds and HH:MM:SS forms.
func parseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	parts := strings.Split(s, ":")
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
