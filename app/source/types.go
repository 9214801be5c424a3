package source

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable marks a transient backend failure; the caller may retry.
	ErrUnavailable = errors.New("source backend unavailable")

	// ErrNotSupported marks an operation the backend does not implement,
	// or a channel type no backend is registered for.
	ErrNotSupported = errors.New("operation not supported by source backend")
)

// Item is one piece of media metadata discovered by a backend.
type Item struct {
	Title       string
	Date        int64 // unix timestamp from the source
	Link        string
	Duration    int // seconds, 0 if the source does not supply it
	Description string
	Thumbnail   string
}

// Result is what a fetch returns: the discovered items plus the watermark
// the channel should advance to.
type Result struct {
	Title     string // source-supplied channel title
	Watermark int64
	Items     []Item
}

// Options tune a fetch.
type Options struct {
	// Limit caps how many items are returned, newest first. <= 0 means all.
	Limit int

	UserAgent string
	Timeout   time.Duration
}

// Backend is a pluggable fetch/transfer implementation per channel type.
type Backend interface {
	// Type returns the channel type this backend serves.
	Type() string

	// FetchNew returns items strictly newer than since, newest first.
	// since < 0 means accept everything.
	FetchNew(ctx context.Context, url string, since int64, opts Options) (*Result, error)

	// Transfer downloads the medium behind link to dest. It must honor
	// ctx cancellation and leave no file at dest on failure.
	Transfer(ctx context.Context, link, dest string) error

	// Describe fetches a human-readable description for an item whose
	// source metadata lacked one.
	Describe(ctx context.Context, link string) (string, error)

	// ProbeDuration returns the duration in seconds of a local file.
	ProbeDuration(ctx context.Context, path string) (int, error)
}
