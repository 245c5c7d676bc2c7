package feed

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The rendered document must satisfy several podcast-directory validators at
// once. Field order in these structs is load-bearing: encoding/xml emits
// elements in declaration order, and the channel-level itunes:explicit flag
// has to appear before any other channel child.

type rssEnvelope struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	NSItunes  string     `xml:"xmlns:itunes,attr"`
	NSAtom    string     `xml:"xmlns:atom,attr"`
	NSContent string     `xml:"xmlns:content,attr"`
	NSMedia   string     `xml:"xmlns:media,attr"`
	NSPodcast string     `xml:"xmlns:podcast,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	// Explicit must stay the first field.
	Explicit string `xml:"itunes:explicit"`

	Title         string           `xml:"title"`
	Description   string           `xml:"description"`
	Link          string           `xml:"link"`
	Language      string           `xml:"language"`
	Copyright     string           `xml:"copyright,omitempty"`
	AtomLink      atomLink         `xml:"atom:link"`
	Author        string           `xml:"itunes:author"`
	Type          string           `xml:"itunes:type"`
	Owner         itunesOwner      `xml:"itunes:owner"`
	ItunesImage   itunesImage      `xml:"itunes:image"`
	Image         rssImage         `xml:"image"`
	Categories    []itunesCategory `xml:"itunes:category"`
	PodcastGUID   string           `xml:"podcast:guid"`
	PodcastLocked string           `xml:"podcast:locked"`
	TTL           int              `xml:"ttl,omitempty"`
	LastBuildDate string           `xml:"lastBuildDate"`
	Items         []rssItem        `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type itunesOwner struct {
	Name  string `xml:"itunes:name"`
	Email string `xml:"itunes:email"`
}

type itunesImage struct {
	Href string `xml:"href,attr"`
}

// rssImage is the plain RSS <image> block. Both it and itunes:image are
// required; players disagree on which they read.
type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type itunesCategory struct {
	Text string          `xml:"text,attr"`
	Sub  *itunesCategory `xml:"itunes:category,omitempty"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	GUID        itemGUID     `xml:"guid"`
	PubDate     string       `xml:"pubDate"`
	Description string       `xml:"description"`
	Enclosure   enclosure    `xml:"enclosure"`
	Duration    string       `xml:"itunes:duration"`
	ItunesImage itunesImage  `xml:"itunes:image"`
	Explicit    string       `xml:"itunes:explicit"`
	EpisodeType string       `xml:"itunes:episodeType"`
	Content     encodedHTML  `xml:"content:encoded"`
	Media       mediaContent `xml:"media:content"`
}

type itemGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type encodedHTML struct {
	Text string `xml:",cdata"`
}

type mediaContent struct {
	URL       string         `xml:"url,attr"`
	Type      string         `xml:"type,attr"`
	Medium    string         `xml:"medium,attr"`
	Duration  int            `xml:"duration,attr"`
	Thumbnail mediaThumbnail `xml:"media:thumbnail"`
}

type mediaThumbnail struct {
	URL string `xml:"url,attr"`
}

// Render serializes the document as UTF-8 XML with a declaration. Any
// serialization error is structural and fails the whole build.
func Render(doc *FeedDocument) ([]byte, error) {
	ch := doc.Channel

	selfURL := doc.SelfURL
	if selfURL == "" {
		selfURL = ch.Link
	}

	env := rssEnvelope{
		Version:   "2.0",
		NSItunes:  "http://www.itunes.com/dtds/podcast-1.0.dtd",
		NSAtom:    "http://www.w3.org/2005/Atom",
		NSContent: "http://purl.org/rss/1.0/modules/content/",
		NSMedia:   "http://search.yahoo.com/mrss/",
		NSPodcast: "https://podcastindex.org/namespace/1.0",
		Channel: rssChannel{
			Explicit:    explicitValue(ch.Explicit),
			Title:       ch.Title,
			Description: ch.Description,
			Link:        ch.Link,
			Language:    ch.Language,
			Copyright:   ch.Copyright,
			AtomLink: atomLink{
				Href: selfURL,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Author: ch.Author,
			Type:   "episodic",
			Owner: itunesOwner{
				Name:  ch.OwnerName,
				Email: ch.OwnerEmail,
			},
			ItunesImage: itunesImage{Href: ch.ImageURL},
			Image: rssImage{
				URL:   ch.ImageURL,
				Title: ch.Title,
				Link:  ch.Link,
			},
			// Stable across builds: derived from the channel link,
			// per the Podcasting 2.0 guid recommendation.
			PodcastGUID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(ch.Link)).String(),
			PodcastLocked: "no",
			TTL:           ch.TTLMinutes,
			LastBuildDate: doc.BuiltAt.Format(time.RFC1123Z),
		},
	}

	for _, c := range ch.Categories {
		cat := itunesCategory{Text: c.Name}
		if c.Subcategory != "" {
			cat.Sub = &itunesCategory{Text: c.Subcategory}
		}
		env.Channel.Categories = append(env.Channel.Categories, cat)
	}

	for _, item := range doc.Items {
		env.Channel.Items = append(env.Channel.Items, rssItem{
			Title:       item.Title,
			GUID:        itemGUID{IsPermaLink: "false", Value: item.GUID},
			PubDate:     item.PubDate.Format(time.RFC1123Z),
			Description: item.Summary,
			Enclosure: enclosure{
				URL:    item.AudioURL,
				Length: item.AudioLength,
				Type:   "audio/mpeg",
			},
			Duration:    formatDuration(item.DurationSeconds),
			ItunesImage: itunesImage{Href: item.ThumbnailURL},
			Explicit:    explicitValue(ch.Explicit),
			EpisodeType: "full",
			Content:     encodedHTML{Text: item.ContentHTML},
			Media: mediaContent{
				URL:       item.AudioURL,
				Type:      "audio/mpeg",
				Medium:    "audio",
				Duration:  item.DurationSeconds,
				Thumbnail: mediaThumbnail{URL: item.ThumbnailURL},
			},
		})
	}

	body, err := xml.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, &FeedBuildError{Cause: fmt.Errorf("serialize feed: %w", err)}
	}

	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func explicitValue(explicit bool) string {
	if explicit {
		return "true"
	}
	return "false"
}

// formatDuration renders seconds as HH:MM:SS, the itunes:duration form every
// player accepts.
func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
