package subscriptions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mediarack/mediarack/app/catalog"
	"github.com/mediarack/mediarack/app/database"
)

func writeSub(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeSub(t, dir, "gotime.yaml", `
url: https://changelog.com/gotime/feed
title: Go Time
categories:
  - "  programming "
  - PODCASTS
auto: "^Go Time"
addcount: 10
`)
	writeSub(t, dir, "news.yml", `
url: https://example.com/news.xml
disabled: true
`)
	// Non-YAML files are not subscriptions.
	writeSub(t, dir, "notes.txt", "url: ignored")

	subs, err := NewLoader(dir).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("LoadAll() = %d subscriptions, want 2", len(subs))
	}

	var gotime *Subscription
	for _, sub := range subs {
		if sub.Title == "Go Time" {
			gotime = sub
		}
	}
	if gotime == nil {
		t.Fatal("gotime.yaml not loaded")
	}
	if gotime.Type != "rss" {
		t.Errorf("type = %q, want rss default", gotime.Type)
	}
	if len(gotime.Categories) != 2 || gotime.Categories[0] != "Programming" || gotime.Categories[1] != "Podcasts" {
		t.Errorf("categories = %v, want normalized title case", gotime.Categories)
	}
	if gotime.AddCount != 10 {
		t.Errorf("addcount = %d, want 10", gotime.AddCount)
	}
}

func TestLoadAllMissingDir(t *testing.T) {
	subs, err := NewLoader(filepath.Join(t.TempDir(), "absent")).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("LoadAll() = %d subscriptions, want none", len(subs))
	}
}

func TestLoadAllRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing url", "title: No URL\n"},
		{"bad yaml", "url: [unclosed\n"},
		{"bad auto pattern", "url: https://example.com/feed\nauto: '['\n"},
		{"bad mask pattern", "url: https://example.com/feed\nmask: '['\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSub(t, dir, "sub.yaml", tt.content)
			if _, err := NewLoader(dir).LoadAll(); err == nil {
				t.Error("LoadAll() = nil error, want failure")
			}
		})
	}
}

type fakeCatalog struct {
	channels []*database.Channel
	added    []string
	failFor  map[string]error
}

func (c *fakeCatalog) Channels() []*database.Channel {
	return c.channels
}

func (c *fakeCatalog) AddChannel(ctx context.Context, url string, opts catalog.AddOptions) (*database.Channel, error) {
	if err := c.failFor[url]; err != nil {
		return nil, err
	}
	c.added = append(c.added, url)
	ch := &database.Channel{ID: int64(len(c.added)), URL: url, Title: opts.Title}
	c.channels = append(c.channels, ch)
	return ch, nil
}

func TestSync(t *testing.T) {
	cat := &fakeCatalog{
		channels: []*database.Channel{{ID: 1, URL: "https://example.com/known"}},
		failFor:  map[string]error{"https://example.com/broken": errors.New("backend down")},
	}

	res := Sync(context.Background(), cat, []*Subscription{
		{URL: "https://example.com/known"},
		{URL: "https://example.com/new"},
		{URL: "https://example.com/broken"},
	})

	if len(cat.added) != 1 || cat.added[0] != "https://example.com/new" {
		t.Fatalf("added = %v, want only the unknown URL", cat.added)
	}
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("result = %s, want 1 succeeded, 1 failed", res)
	}
}
