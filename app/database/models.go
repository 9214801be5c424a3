package database

import (
	"time"
)

// Location tracks where a medium's bytes live.
type Location string

const (
	LocationRemote   Location = "remote"
	LocationDownload Location = "download"
	LocationLocal    Location = "local"
)

// CanTransition reports whether moving to the given location is a valid
// step of the medium lifecycle: remote -> download -> {local | remote},
// local -> remote. Everything else is a programming error.
func (l Location) CanTransition(to Location) bool {
	switch l {
	case LocationRemote:
		return to == LocationDownload
	case LocationDownload:
		return to == LocationLocal || to == LocationRemote
	case LocationLocal:
		return to == LocationRemote
	}
	return false
}

// State tracks whether the user has seen a medium.
type State string

const (
	StateUnread  State = "unread"
	StateRead    State = "read"
	StateSkipped State = "skipped"
)

// WatermarkNone marks a freshly created channel that accepts items of any age.
const WatermarkNone int64 = -1

// AddCountAll is the stored addcount sentinel for "pull all available
// items at creation".
const AddCountAll = -1

// Channel is a subscribed content source.
type Channel struct {
	ID         int64
	URL        string // lookup key, not unique
	Title      string
	Type       string // discriminates the source backend
	Categories []string
	Auto       string // regex; new items matching it are auto-downloaded
	Mask       string // regex; discovered items not matching it are dropped
	Disabled   bool   // excluded from scheduled polling
	LastUpdate int64  // watermark: latest item date absorbed, WatermarkNone at creation
	AddCount   int    // items pulled at creation, -1 = all available
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Medium is one discoverable item belonging to a channel.
// Identity is the (ChannelID, Link) pair.
type Medium struct {
	ChannelID   int64
	Link        string
	Title       string
	Date        int64 // source-provided unix timestamp, orders items and gates dedup
	Duration    int   // seconds, 0 = unknown (triggers lazy probe)
	Location    Location
	State       State
	Filename    string // non-empty only when Location == local
	Tags        []string
	Description string
	CreatedAt   time.Time
}
