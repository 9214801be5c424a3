package rss

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/mediarack/mediarack/app/source"
)

// Backend serves channels of type "rss": podcast and media feeds whose items
// carry enclosures.
type Backend struct {
	client *http.Client
	parser *gofeed.Parser
}

func New(client *http.Client) *Backend {
	if client == nil {
		client = http.DefaultClient
	}
	return &Backend{
		client: client,
		parser: gofeed.NewParser(),
	}
}

func (b *Backend) Type() string {
	return "rss"
}

func (b *Backend) FetchNew(ctx context.Context, url string, since int64, opts source.Options) (*source.Result, error) {
	data, err := b.fetch(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	feed, err := b.parser.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}

	items := make([]source.Item, 0, len(feed.Items))
	watermark := since
	for _, entry := range feed.Items {
		item := normalizeItem(entry)
		if item.Link == "" {
			continue
		}
		if item.Date > watermark {
			watermark = item.Date
		}
		if since >= 0 && item.Date <= since {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	return &source.Result{Title: feed.Title, Watermark: watermark, Items: items}, nil
}

func normalizeItem(entry *gofeed.Item) source.Item {
	item := source.Item{
		Title:       entry.Title,
		Link:        entry.Link,
		Description: cmp.Or(entry.Description, entry.Content),
	}

	// An enclosure is the downloadable payload; the article link is only a
	// fallback identity.
	for _, enc := range entry.Enclosures {
		if enc.URL != "" {
			item.Link = enc.URL
			break
		}
	}

	if entry.PublishedParsed != nil {
		item.Date = entry.PublishedParsed.Unix()
	} else if entry.UpdatedParsed != nil {
		item.Date = entry.UpdatedParsed.Unix()
	}

	if entry.ITunesExt != nil {
		item.Duration = parseDuration(entry.ITunesExt.Duration)
		if entry.ITunesExt.Image != "" {
			item.Thumbnail = entry.ITunesExt.Image
		}
	}
	if item.Thumbnail == "" && entry.Image != nil {
		item.Thumbnail = entry.Image.URL
	}

	return item
}

// parseDuration understands the forms iTunes feeds use: plain seconds,
// mm:ss, or hh:mm:ss.
func parseDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0
	}

	seconds := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		seconds = seconds*60 + n
	}
	return seconds
}

func (b *Backend) fetch(ctx context.Context, url string, opts source.Options) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d %s", source.ErrUnavailable, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	return data, nil
}

// Transfer streams the enclosure behind link into dest. The body read is
// bound to ctx, so cancelling the context interrupts the transfer at the
// next read; a partial file never survives.
func (b *Backend) Transfer(ctx context.Context, link, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d %s", source.ErrUnavailable, resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return fmt.Errorf("transfer of %s failed: %w", link, err)
	}

	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return nil
}

// Describe fetches the page behind link and extracts its readable text,
// for items whose feed entry carried no description.
func (b *Backend) Describe(ctx context.Context, link string) (string, error) {
	data, err := b.fetch(ctx, link, source.Options{})
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract description: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no description extracted from %s", link)
	}
	return truncate(text, 2000), nil
}

// ProbeDuration asks ffprobe for the duration of a local file. Feeds often
// omit item durations; this fills them in after download.
func (b *Backend) ProbeDuration(ctx context.Context, path string) (int, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path).Output()
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe: %v", source.ErrNotSupported, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return int(seconds + 0.5), nil
}

// truncate caps text at max bytes, backing off to a rune boundary so a
// multi-byte character is never cut in half.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
