package feed

import (
	"strings"
	"testing"
	"time"
)

func renderedDoc(t *testing.T) string {
	t.Helper()
	doc := &FeedDocument{
		BuildID: "test-build",
		BuiltAt: time.Date(2025, 3, 28, 12, 0, 0, 0, time.UTC),
		Channel: testChannel(),
		SelfURL: "https://cdn.example.com/feeds/podcast.xml",
		Items: []Item{
			{
				GUID:            "ever-phys-000001",
				Title:           "Dark Matter",
				Summary:         "What we know about dark matter.",
				ContentHTML:     "<p>What we <em>know</em> about dark matter.</p>",
				AudioURL:        "https://cdn.example.com/audio/ever-phys-000001.mp3",
				AudioLength:     1234567,
				ThumbnailURL:    "https://cdn.example.com/thumbnails/ever-phys-000001-thumb.jpg",
				DurationSeconds: 1425,
				PubDate:         time.Date(2025, 3, 27, 9, 0, 0, 0, time.UTC),
			},
		},
	}

	data, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return string(data)
}

func TestRenderDeclarationAndNamespaces(t *testing.T) {
	out := renderedDoc(t)

	if !strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>") {
		t.Error("Expected XML declaration prefix")
	}
	for _, ns := range []string{
		`xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"`,
		`xmlns:atom="http://www.w3.org/2005/Atom"`,
		`xmlns:content="http://purl.org/rss/1.0/modules/content/"`,
		`xmlns:media="http://search.yahoo.com/mrss/"`,
		`xmlns:podcast="https://podcastindex.org/namespace/1.0"`,
	} {
		if !strings.Contains(out, ns) {
			t.Errorf("Missing namespace declaration %s", ns)
		}
	}
}

func TestRenderExplicitIsFirstChannelChild(t *testing.T) {
	out := renderedDoc(t)

	chStart := strings.Index(out, "<channel>")
	if chStart == -1 {
		t.Fatal("No <channel> element")
	}
	rest := strings.TrimLeft(out[chStart+len("<channel>"):], " \n\t")
	if !strings.HasPrefix(rest, "<itunes:explicit>") {
		t.Errorf("Expected itunes:explicit as the first channel child, got %q", rest[:40])
	}
}

func TestRenderChannelRequiredElements(t *testing.T) {
	out := renderedDoc(t)

	for _, want := range []string{
		"<title>Signal &amp; Noise</title>",
		"<language>en-us</language>",
		`<itunes:category text="Science">`,
		`<itunes:category text="Physics">`,
		"<itunes:owner>",
		"<itunes:email>podcast@example.com</itunes:email>",
		`<itunes:image href="https://cdn.example.com/cover.jpg">`,
		"<image>",
		"<link>https://podcast.example.com</link>",
		`<atom:link href="https://cdn.example.com/feeds/podcast.xml" rel="self" type="application/rss+xml">`,
		"<podcast:guid>",
		"<podcast:locked>no</podcast:locked>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Missing channel element %s", want)
		}
	}
}

func TestRenderItemShape(t *testing.T) {
	out := renderedDoc(t)

	for _, want := range []string{
		`<guid isPermaLink="false">ever-phys-000001</guid>`,
		"<pubDate>Thu, 27 Mar 2025 09:00:00 +0000</pubDate>",
		`<enclosure url="https://cdn.example.com/audio/ever-phys-000001.mp3" length="1234567" type="audio/mpeg">`,
		"<itunes:duration>00:23:45</itunes:duration>",
		`<itunes:image href="https://cdn.example.com/thumbnails/ever-phys-000001-thumb.jpg">`,
		"<description>What we know about dark matter.</description>",
		"<content:encoded><![CDATA[<p>What we <em>know</em> about dark matter.</p>]]></content:encoded>",
		`<media:content url="https://cdn.example.com/audio/ever-phys-000001.mp3" type="audio/mpeg" medium="audio" duration="1425">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Missing item element %s", want)
		}
	}
}

func TestRenderStablePodcastGUID(t *testing.T) {
	a := renderedDoc(t)
	b := renderedDoc(t)

	extract := func(s string) string {
		start := strings.Index(s, "<podcast:guid>")
		end := strings.Index(s, "</podcast:guid>")
		if start == -1 || end == -1 {
			t.Fatal("No podcast:guid element")
		}
		return s[start:end]
	}
	if extract(a) != extract(b) {
		t.Error("podcast:guid must be stable across builds")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
	}
	for _, tc := range tests {
		if got := formatDuration(tc.seconds); got != tc.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
