package api

import (
	"context"

	"github.com/mediarack/mediarack/app/catalog"
	"github.com/mediarack/mediarack/app/database"
)

// CatalogInterface is the catalog surface the HTTP handlers drive.
type CatalogInterface interface {
	Channels() []*database.Channel
	Channel(id int64) (*database.Channel, error)
	MediaByChannel(channelID int64) []*database.Medium
	Medium(channelID int64, link string) (*database.Medium, error)
	AddChannel(ctx context.Context, url string, opts catalog.AddOptions) (*database.Channel, error)
	PollChannel(ctx context.Context, channelID int64) (int, error)
	SwitchState(media []*database.Medium, toSkip bool) catalog.BatchResult
	RemoveMedium(m *database.Medium, unlink bool) error
	RemoveChannels(ids []int64) error
	EnqueueDownload(m *database.Medium) error
	CancelDownload(m *database.Medium)
}

var _ CatalogInterface = (*catalog.Catalog)(nil)

type Handler struct {
	catalog CatalogInterface
	version string
}

type channelRequest struct {
	URL        string   `json:"url" binding:"required"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	Auto       string   `json:"auto"`
	Mask       string   `json:"mask"`
	AddCount   int      `json:"addcount"`
	Disabled   bool     `json:"disabled"`
	Force      bool     `json:"force"`
}

type mediumRef struct {
	ChannelID int64  `json:"channel_id" binding:"required"`
	Link      string `json:"link" binding:"required"`
}

type stateRequest struct {
	Items []mediumRef `json:"items" binding:"required"`
	Skip  bool        `json:"skip"`
}

type removeMediaRequest struct {
	ChannelID int64  `json:"channel_id" binding:"required"`
	Link      string `json:"link" binding:"required"`
	Unlink    bool   `json:"unlink"`
}

type channelView struct {
	ID         int64    `json:"id"`
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Categories []string `json:"categories,omitempty"`
	Auto       string   `json:"auto,omitempty"`
	Mask       string   `json:"mask,omitempty"`
	Disabled   bool     `json:"disabled"`
	LastUpdate int64    `json:"last_update"`
}

type mediumView struct {
	ChannelID   int64  `json:"channel_id"`
	Link        string `json:"link"`
	Title       string `json:"title"`
	Date        int64  `json:"date"`
	Duration    int    `json:"duration,omitempty"`
	Location    string `json:"location"`
	State       string `json:"state"`
	Filename    string `json:"filename,omitempty"`
	Description string `json:"description,omitempty"`
}

func viewChannel(ch *database.Channel) channelView {
	return channelView{
		ID:         ch.ID,
		URL:        ch.URL,
		Title:      ch.Title,
		Type:       ch.Type,
		Categories: ch.Categories,
		Auto:       ch.Auto,
		Mask:       ch.Mask,
		Disabled:   ch.Disabled,
		LastUpdate: ch.LastUpdate,
	}
}

func viewMedium(m *database.Medium) mediumView {
	return mediumView{
		ChannelID:   m.ChannelID,
		Link:        m.Link,
		Title:       m.Title,
		Date:        m.Date,
		Duration:    m.Duration,
		Location:    string(m.Location),
		State:       string(m.State),
		Filename:    m.Filename,
		Description: m.Description,
	}
}

func viewChannels(channels []*database.Channel) []channelView {
	out := make([]channelView, 0, len(channels))
	for _, ch := range channels {
		out = append(out, viewChannel(ch))
	}
	return out
}

func viewMedia(media []*database.Medium) []mediumView {
	out := make([]mediumView, 0, len(media))
	for _, m := range media {
		out = append(out, viewMedium(m))
	}
	return out
}
