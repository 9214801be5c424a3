package database

import (
	"errors"
	"testing"
)

func TestCreateChannelWithMedia(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)

	ch := &Channel{
		URL:        "https://example.org/feed.xml",
		Title:      "Example",
		Type:       "rss",
		Categories: []string{"Tech", "News"},
		AddCount:   -1,
	}
	items := []Medium{
		{Link: "https://example.org/ep1.mp3", Title: "Episode 1", Date: 10},
		{Link: "https://example.org/ep2.mp3", Title: "Episode 2", Date: 20},
	}

	if _, err := repo.CreateChannelWithMedia(ch, items, 20); err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}
	if ch.ID == 0 {
		t.Error("Expected channel ID to be assigned")
	}
	if ch.LastUpdate != 20 {
		t.Errorf("Expected watermark 20, got %d", ch.LastUpdate)
	}

	got, err := repo.GetChannel(ch.ID)
	if err != nil {
		t.Fatalf("Failed to get channel: %v", err)
	}
	if got.Title != "Example" || got.Type != "rss" {
		t.Errorf("Unexpected channel round-trip: %+v", got)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "Tech" {
		t.Errorf("Unexpected categories: %v", got.Categories)
	}

	media, err := NewMediaRepository(db).ListMediaByChannel(ch.ID)
	if err != nil {
		t.Fatalf("Failed to list media: %v", err)
	}
	if len(media) != 2 {
		t.Fatalf("Expected 2 media, got %d", len(media))
	}
	if media[0].Date != 20 {
		t.Errorf("Expected newest-first ordering, got date %d first", media[0].Date)
	}
	if media[0].Location != LocationRemote || media[0].State != StateUnread {
		t.Errorf("Expected remote/unread defaults, got %s/%s", media[0].Location, media[0].State)
	}
}

func TestGetChannelsByURL(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)

	url := "https://example.org/feed.xml"
	for i := 0; i < 2; i++ {
		ch := &Channel{URL: url, Type: "rss", AddCount: -1}
		if _, err := repo.CreateChannelWithMedia(ch, nil, WatermarkNone); err != nil {
			t.Fatalf("Failed to create channel: %v", err)
		}
	}

	// The URL is a lookup key, not unique: both rows come back.
	channels, err := repo.GetChannelsByURL(url)
	if err != nil {
		t.Fatalf("Failed to get channels by URL: %v", err)
	}
	if len(channels) != 2 {
		t.Errorf("Expected 2 channels, got %d", len(channels))
	}

	channels, err = repo.GetChannelsByURL("https://other.example.org/feed.xml")
	if err != nil {
		t.Fatalf("Failed to get channels by URL: %v", err)
	}
	if len(channels) != 0 {
		t.Errorf("Expected no channels, got %d", len(channels))
	}
}

func TestUpdateChannelWatermarkNeverDecreases(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)

	ch := &Channel{URL: "https://example.org/feed.xml", Type: "rss", AddCount: -1}
	if _, err := repo.CreateChannelWithMedia(ch, nil, 30); err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}

	ch.LastUpdate = 10
	if err := repo.UpdateChannel(ch); err != nil {
		t.Fatalf("Failed to update channel: %v", err)
	}

	got, err := repo.GetChannel(ch.ID)
	if err != nil {
		t.Fatalf("Failed to get channel: %v", err)
	}
	if got.LastUpdate != 30 {
		t.Errorf("Watermark moved backwards: expected 30, got %d", got.LastUpdate)
	}
}

func TestUpdateChannelNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)

	err := repo.UpdateChannel(&Channel{ID: 12345, Type: "rss"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRemoveChannelsCascades(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)
	media := NewMediaRepository(db)

	keep := &Channel{URL: "https://keep.example.org/feed.xml", Type: "rss"}
	drop := &Channel{URL: "https://drop.example.org/feed.xml", Type: "rss"}
	if _, err := repo.CreateChannelWithMedia(keep, []Medium{{Link: "k1", Date: 1}}, 1); err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}
	if _, err := repo.CreateChannelWithMedia(drop, []Medium{{Link: "d1", Date: 1}, {Link: "d2", Date: 2}}, 2); err != nil {
		t.Fatalf("Failed to create channel: %v", err)
	}

	if err := repo.RemoveChannels([]int64{drop.ID}); err != nil {
		t.Fatalf("Failed to remove channel: %v", err)
	}

	if _, err := repo.GetChannel(drop.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected removed channel to be gone, got %v", err)
	}

	all, err := media.ListMedia()
	if err != nil {
		t.Fatalf("Failed to list media: %v", err)
	}
	for _, m := range all {
		if m.ChannelID == drop.ID {
			t.Errorf("Orphaned medium survives channel removal: %s", m.Link)
		}
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 remaining medium, got %d", len(all))
	}
}
