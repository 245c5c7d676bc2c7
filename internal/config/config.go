// Package config loads the feed channel configuration from YAML, with
// environment-variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItunesCategory is one channel-level iTunes category entry. Subcategory may
// be empty; when set it must come from Apple's fixed taxonomy.
type ItunesCategory struct {
	Name        string `yaml:"name"`
	Subcategory string `yaml:"subcategory,omitempty"`
}

// Channel holds the feed-channel metadata and ordering policy.
type Channel struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Copyright   string `yaml:"copyright,omitempty"`
	Author      string `yaml:"author"`
	OwnerName   string `yaml:"owner_name"`
	OwnerEmail  string `yaml:"owner_email"`
	Explicit    bool   `yaml:"explicit"`
	ImageURL    string `yaml:"image_url"`
	TTLMinutes  int    `yaml:"ttl_minutes,omitempty"`

	Categories []ItunesCategory `yaml:"categories"`

	// FeedPath is the blob path the rendered feed is published to.
	FeedPath string `yaml:"feed_path"`

	// PinnedGUIDs is the caller-supplied ordering preference: these ids
	// appear first in the feed, in this exact order, ahead of the
	// reverse-chronological remainder.
	PinnedGUIDs []string `yaml:"pinned_guids,omitempty"`
}

// Load reads the channel config from path and applies defaults and env
// overrides.
func Load(path string) (*Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel config: %w", err)
	}

	var ch Channel
	if err := yaml.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("failed to parse channel config: %w", err)
	}

	applyDefaults(&ch)

	if ch.Title == "" {
		return nil, fmt.Errorf("channel config %s: title is required", path)
	}
	if ch.Link == "" {
		return nil, fmt.Errorf("channel config %s: link is required", path)
	}
	if ch.OwnerEmail == "" {
		return nil, fmt.Errorf("channel config %s: owner_email is required", path)
	}
	if len(ch.Categories) == 0 {
		return nil, fmt.Errorf("channel config %s: at least one itunes category is required", path)
	}

	return &ch, nil
}

func applyDefaults(ch *Channel) {
	if ch.Language == "" {
		ch.Language = "en-us"
	}
	if ch.FeedPath == "" {
		ch.FeedPath = "feeds/podcast.xml"
	}
	if v := os.Getenv("FEEDSMITH_FEED_PATH"); v != "" {
		ch.FeedPath = v
	}
	if v := os.Getenv("FEEDSMITH_CHANNEL_LINK"); v != "" {
		ch.Link = v
	}
	if ch.Author == "" {
		ch.Author = ch.OwnerName
	}
}
