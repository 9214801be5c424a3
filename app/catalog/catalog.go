package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"github.com/mediarack/mediarack/app/database"
	"github.com/mediarack/mediarack/app/source"
)

// Downloader is the download engine surface the catalog pushes work into.
type Downloader interface {
	Enqueue(m *database.Medium, ch *database.Channel) bool
	Cancel(link string)
}

type mediaKey struct {
	channelID int64
	link      string
}

// Catalog is the ordered in-memory mirror of the store. Every mutation is
// committed to the store first, then applied to the index, then fanned out
// to observers. The index mutex is distinct from the store's write mutex
// and is never held across I/O or observer callbacks.
type Catalog struct {
	channels  database.ChannelRepo
	media     database.MediaRepo
	backends  *source.Registry
	fetchOpts source.Options

	downloader Downloader

	// writeMu serializes write-through sequences end to end.
	writeMu sync.Mutex

	mu          sync.Mutex
	channelList []*database.Channel
	mediaList   []*database.Medium
	channelByID map[int64]*database.Channel
	mediaByKey  map[mediaKey]*database.Medium
	channelPos  map[int64]int
	mediaPos    map[mediaKey]int

	pollMu  sync.Mutex
	polling map[int64]bool

	addMu  sync.Mutex
	adding map[string]bool

	observers observerRegistry
}

func New(channels database.ChannelRepo, media database.MediaRepo, backends *source.Registry, fetchOpts source.Options) *Catalog {
	return &Catalog{
		channels:    channels,
		media:       media,
		backends:    backends,
		fetchOpts:   fetchOpts,
		channelByID: make(map[int64]*database.Channel),
		mediaByKey:  make(map[mediaKey]*database.Medium),
		channelPos:  make(map[int64]int),
		mediaPos:    make(map[mediaKey]int),
		polling:     make(map[int64]bool),
		adding:      make(map[string]bool),
	}
}

// SetDownloader wires the download engine in after construction; the engine
// itself is built around the catalog's Applier side, so the two cannot be
// handed to each other's constructors.
func (c *Catalog) SetDownloader(d Downloader) {
	c.downloader = d
}

func (c *Catalog) Subscribe(o Observer) {
	c.observers.subscribe(o)
}

func (c *Catalog) Unsubscribe(o Observer) {
	c.observers.unsubscribe(o)
}

// reindex renumbers positions from the ordered slices. Caller holds c.mu.
func (c *Catalog) reindex() {
	c.channelPos = make(map[int64]int, len(c.channelList))
	for i, ch := range c.channelList {
		c.channelPos[ch.ID] = i
	}
	c.mediaPos = make(map[mediaKey]int, len(c.mediaList))
	for i, m := range c.mediaList {
		c.mediaPos[mediaKey{m.ChannelID, m.Link}] = i
	}
}

// LoadAll populates the index from the store. Local media whose backing
// file has gone missing are demoted to remote/read with a write-through, so
// a stale row never resurrects a deleted file. Media caught mid-download by
// a crash are handed back to the download engine.
func (c *Catalog) LoadAll() error {
	chs, err := c.channels.ListChannels()
	if err != nil {
		return fmt.Errorf("load channels: %w", err)
	}
	media, err := c.media.ListMedia()
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}

	var locals []*database.Medium
	var resume []downloadJob

	c.mu.Lock()
	c.channelList = chs
	c.mediaList = media
	c.channelByID = make(map[int64]*database.Channel, len(chs))
	for _, ch := range chs {
		c.channelByID[ch.ID] = ch
	}
	c.mediaByKey = make(map[mediaKey]*database.Medium, len(media))
	for _, m := range media {
		c.mediaByKey[mediaKey{m.ChannelID, m.Link}] = m

		switch m.Location {
		case database.LocationLocal:
			cp := *m
			locals = append(locals, &cp)
		case database.LocationDownload:
			if ch, ok := c.channelByID[m.ChannelID]; ok {
				mc, cc := *m, *ch
				resume = append(resume, downloadJob{&mc, &cc})
			}
		}
	}
	c.reindex()
	c.mu.Unlock()

	for _, m := range locals {
		if m.Filename != "" {
			if _, err := os.Stat(m.Filename); err == nil {
				continue
			}
		}
		if _, err := c.writeThrough(m, func(u *database.Medium) error {
			u.Location = database.LocationRemote
			u.State = database.StateRead
			u.Filename = ""
			return nil
		}); err != nil {
			return fmt.Errorf("reconcile %q: %w", m.Link, err)
		}
		slog.Warn("Local file missing, medium demoted to remote", "link", m.Link)
	}

	if c.downloader != nil {
		for _, job := range resume {
			c.downloader.Enqueue(job.medium, job.channel)
			slog.Info("Interrupted download requeued", "channel", job.channel.Title, "title", job.medium.Title)
		}
	}

	slog.Info("Catalog loaded", "channels", len(chs), "media", len(media))
	return nil
}

type downloadJob struct {
	medium  *database.Medium
	channel *database.Channel
}

// AddOptions tune channel creation.
type AddOptions struct {
	Type       string // source backend type, "rss" when empty
	Title      string // overrides the source-supplied title
	Categories []string
	Auto       string // regex; matching new items are auto-downloaded
	Mask       string // regex; non-matching discovered items are dropped
	Disabled   bool
	AddCount   int  // initial items to pull, <= 0 means all available
	Force      bool // subscribe even when the URL is already present
}

// AddChannel subscribes a new channel: fetches its initial items through the
// source backend, inserts channel and media in one store transaction,
// splices both at the front of the index and fires an added event. A second
// add of the same URL racing the first coalesces into ErrAlreadyExists, so
// the duplicate check and the insert behave as one step.
func (c *Catalog) AddChannel(ctx context.Context, url string, opts AddOptions) (*database.Channel, error) {
	c.addMu.Lock()
	if c.adding[url] {
		c.addMu.Unlock()
		return nil, fmt.Errorf("%q: %w", url, ErrAlreadyExists)
	}
	c.adding[url] = true
	c.addMu.Unlock()
	defer func() {
		c.addMu.Lock()
		delete(c.adding, url)
		c.addMu.Unlock()
	}()

	existing, err := c.channels.GetChannelsByURL(url)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", url, err)
	}
	if len(existing) > 0 && !opts.Force {
		return nil, fmt.Errorf("%q: %w", url, ErrAlreadyExists)
	}

	channelType := opts.Type
	if channelType == "" {
		channelType = "rss"
	}
	backend, err := c.backends.Get(channelType)
	if err != nil {
		return nil, err
	}
	mask, err := compileMask(opts.Mask)
	if err != nil {
		return nil, err
	}

	fetchOpts := c.fetchOpts
	fetchOpts.Limit = opts.AddCount
	res, err := backend.FetchNew(ctx, url, database.WatermarkNone, fetchOpts)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", url, err)
	}

	title := opts.Title
	if title == "" {
		title = res.Title
	}
	if title == "" {
		title = url
	}

	items := make([]database.Medium, 0, len(res.Items))
	for _, it := range res.Items {
		if mask != nil && !mask.MatchString(it.Title) {
			continue
		}
		items = append(items, mediumFromItem(it))
	}

	addCount := opts.AddCount
	if addCount <= 0 {
		addCount = database.AddCountAll
	}
	ch := &database.Channel{
		URL:        url,
		Title:      title,
		Type:       channelType,
		Categories: opts.Categories,
		Auto:       opts.Auto,
		Mask:       opts.Mask,
		Disabled:   opts.Disabled,
		AddCount:   addCount,
	}
	inserted, err := c.channels.CreateChannelWithMedia(ch, items, res.Watermark)
	if err != nil {
		return nil, fmt.Errorf("create channel %q: %w", url, err)
	}

	c.mu.Lock()
	c.channelList = append([]*database.Channel{ch}, c.channelList...)
	c.channelByID[ch.ID] = ch
	c.spliceMediaFront(inserted)
	c.reindex()
	chSnap := *ch
	mediaSnap := copyMedia(inserted)
	c.mu.Unlock()

	c.observers.notify(Event{Kind: EventAdded, Channels: []*database.Channel{&chSnap}, Media: mediaSnap})
	slog.Info("Channel added", "channel", chSnap.Title, "media", len(mediaSnap))
	return &chSnap, nil
}

// spliceMediaFront inserts new media ahead of everything already indexed,
// keeping most-recent-first order. Caller holds c.mu.
func (c *Catalog) spliceMediaFront(inserted []*database.Medium) {
	if len(inserted) == 0 {
		return
	}
	merged := make([]*database.Medium, 0, len(inserted)+len(c.mediaList))
	merged = append(merged, inserted...)
	c.mediaList = append(merged, c.mediaList...)
	for _, m := range inserted {
		c.mediaByKey[mediaKey{m.ChannelID, m.Link}] = m
	}
}

// PollChannel fetches items newer than the channel's watermark and merges
// them. A poll already running for the same channel coalesces the request
// into a no-op; polls for different channels run in parallel. Returns how
// many new media landed.
func (c *Catalog) PollChannel(ctx context.Context, channelID int64) (int, error) {
	c.mu.Lock()
	canonical, ok := c.channelByID[channelID]
	if !ok {
		c.mu.Unlock()
		return 0, fmt.Errorf("channel %d: %w", channelID, database.ErrNotFound)
	}
	ch := *canonical
	c.mu.Unlock()

	c.pollMu.Lock()
	if c.polling[channelID] {
		c.pollMu.Unlock()
		slog.Debug("Poll already in progress, request dropped", "channel", ch.Title)
		return 0, nil
	}
	c.polling[channelID] = true
	c.pollMu.Unlock()
	defer func() {
		c.pollMu.Lock()
		delete(c.polling, channelID)
		c.pollMu.Unlock()
	}()

	backend, err := c.backends.Get(ch.Type)
	if err != nil {
		return 0, err
	}
	mask, err := compileMask(ch.Mask)
	if err != nil {
		return 0, err
	}

	res, err := backend.FetchNew(ctx, ch.URL, ch.LastUpdate, c.fetchOpts)
	if err != nil {
		return 0, fmt.Errorf("poll %q: %w", ch.Title, err)
	}

	items := make([]database.Medium, 0, len(res.Items))
	for _, it := range res.Items {
		if mask != nil && !mask.MatchString(it.Title) {
			continue
		}
		items = append(items, mediumFromItem(it))
	}

	inserted, skipped, err := c.media.UpsertNewMedia(ch.ID, items, res.Watermark)
	if err != nil {
		return 0, fmt.Errorf("merge %q: %w", ch.Title, err)
	}

	c.mu.Lock()
	if cur, ok := c.channelByID[channelID]; ok && res.Watermark > cur.LastUpdate {
		cur.LastUpdate = res.Watermark
	}
	c.spliceMediaFront(inserted)
	c.reindex()
	mediaSnap := copyMedia(inserted)
	c.mu.Unlock()

	if len(mediaSnap) > 0 {
		c.observers.notify(Event{Kind: EventAdded, Media: mediaSnap})
		c.autoEnqueue(&ch, mediaSnap)
		go c.enrichDescriptions(backend, mediaSnap)
	}

	slog.Info("Channel polled", "channel", ch.Title, "new", len(inserted), "skipped", skipped)
	return len(inserted), nil
}

// autoEnqueue pushes freshly merged media whose titles match the channel's
// auto pattern into the download engine.
func (c *Catalog) autoEnqueue(ch *database.Channel, media []*database.Medium) {
	if ch.Auto == "" || c.downloader == nil {
		return
	}
	re, err := regexp.Compile(ch.Auto)
	if err != nil {
		slog.Warn("Invalid auto-download pattern", "channel", ch.Title, "pattern", ch.Auto, "error", err)
		return
	}
	for _, m := range media {
		if !re.MatchString(m.Title) {
			continue
		}
		if err := c.EnqueueDownload(m); err != nil {
			slog.Warn("Auto-download enqueue failed", "channel", ch.Title, "title", m.Title, "error", err)
		}
	}
}

// enrichDescriptions backfills empty descriptions from the item pages.
// Runs off the polling goroutine; a failed lookup just leaves the
// description empty.
func (c *Catalog) enrichDescriptions(backend source.Backend, media []*database.Medium) {
	for _, m := range media {
		if m.Description != "" {
			continue
		}

		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if c.fetchOpts.Timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, c.fetchOpts.Timeout)
		}
		desc, err := backend.Describe(ctx, m.Link)
		cancel()
		if err != nil || desc == "" {
			slog.Debug("Description lookup failed", "link", m.Link, "error", err)
			continue
		}

		updated, err := c.writeThrough(m, func(u *database.Medium) error {
			u.Description = desc
			return nil
		})
		if err != nil {
			slog.Warn("Could not store description", "link", m.Link, "error", err)
			continue
		}
		c.observers.notify(Event{Kind: EventModified, Media: []*database.Medium{updated}})
	}
}

// SwitchState toggles read state, or skip state when toSkip is set, for
// each medium. One medium's write-through failure does not stop the rest;
// everything that did change still fires a modified event.
func (c *Catalog) SwitchState(media []*database.Medium, toSkip bool) BatchResult {
	var res BatchResult
	modified := make([]*database.Medium, 0, len(media))

	for _, m := range media {
		updated, err := c.writeThrough(m, func(u *database.Medium) error {
			u.State = nextState(u.State, toSkip)
			return nil
		})
		if err != nil {
			res.Fail(fmt.Errorf("%q: %w", m.Link, err))
			continue
		}
		res.OK()
		modified = append(modified, updated)
	}

	if len(modified) > 0 {
		c.observers.notify(Event{Kind: EventModified, Media: modified})
	}
	return res
}

func nextState(cur database.State, toSkip bool) database.State {
	if toSkip {
		if cur == database.StateSkipped {
			return database.StateUnread
		}
		return database.StateSkipped
	}
	if cur == database.StateRead {
		return database.StateUnread
	}
	return database.StateRead
}

// RemoveMedium retires a medium. An in-flight download is cancelled before
// the tombstone lands, so a late success callback cannot resurrect it. With
// unlink the backing file is deleted best-effort: a missing file is fine, a
// permission failure is logged but does not block the removal. The row
// survives as a read, remote, filename-less tombstone so identity and
// position stay stable for any observer still holding a reference.
func (c *Catalog) RemoveMedium(m *database.Medium, unlink bool) error {
	c.mu.Lock()
	canonical, ok := c.mediaByKey[mediaKey{m.ChannelID, m.Link}]
	inFlight := ok && canonical.Location == database.LocationDownload
	c.mu.Unlock()
	if inFlight && c.downloader != nil {
		c.downloader.Cancel(m.Link)
	}

	var file string
	updated, err := c.writeThrough(m, func(u *database.Medium) error {
		file = u.Filename
		u.State = database.StateRead
		u.Location = database.LocationRemote
		u.Filename = ""
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", m.Link, err)
	}

	if unlink && file != "" {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("Could not delete media file", "file", file, "error", err)
		}
	}

	c.observers.notify(Event{Kind: EventModified, Media: []*database.Medium{updated}})
	return nil
}

// RemoveChannels drops the channels and all their media from store and
// index. Index media are spliced out in a single descending-position pass,
// so renumbering never aliases a slot still being visited.
func (c *Catalog) RemoveChannels(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.channels.RemoveChannels(ids); err != nil {
		return fmt.Errorf("remove channels: %w", err)
	}

	gone := make(map[int64]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}

	c.mu.Lock()
	var removed []*database.Channel
	kept := c.channelList[:0]
	for _, ch := range c.channelList {
		if gone[ch.ID] {
			removed = append(removed, ch)
			delete(c.channelByID, ch.ID)
			continue
		}
		kept = append(kept, ch)
	}
	c.channelList = kept

	for i := len(c.mediaList) - 1; i >= 0; i-- {
		m := c.mediaList[i]
		if !gone[m.ChannelID] {
			continue
		}
		delete(c.mediaByKey, mediaKey{m.ChannelID, m.Link})
		c.mediaList = append(c.mediaList[:i], c.mediaList[i+1:]...)
	}
	c.reindex()
	removed = copyChannels(removed)
	c.mu.Unlock()

	c.observers.notify(Event{Kind: EventRemoved, Channels: removed})
	slog.Info("Channels removed", "count", len(removed))
	return nil
}

// EnqueueDownload transitions the medium to download, persists and
// announces the transition, then hands the job to the engine. A medium
// already in download is re-offered to the engine, which ignores
// duplicates. Any other non-transitionable location fails with
// ErrInvalidTransition.
func (c *Catalog) EnqueueDownload(m *database.Medium) error {
	c.mu.Lock()
	canonical, ok := c.mediaByKey[mediaKey{m.ChannelID, m.Link}]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("medium %q: %w", m.Link, database.ErrNotFound)
	}
	chCanon, chOK := c.channelByID[canonical.ChannelID]
	job := *canonical
	var ch database.Channel
	if chOK {
		ch = *chCanon
	}
	c.mu.Unlock()
	if !chOK {
		return fmt.Errorf("channel %d: %w", m.ChannelID, database.ErrNotFound)
	}

	if job.Location != database.LocationDownload {
		updated, err := c.writeThrough(&job, func(u *database.Medium) error {
			if u.Location == database.LocationDownload {
				return nil
			}
			if !u.Location.CanTransition(database.LocationDownload) {
				return fmt.Errorf("%s -> %s: %w", u.Location, database.LocationDownload, ErrInvalidTransition)
			}
			u.Location = database.LocationDownload
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				return err
			}
			return fmt.Errorf("enqueue %q: %w", m.Link, err)
		}
		job = *updated
		c.observers.notify(Event{Kind: EventModified, Media: []*database.Medium{updated}})
	}

	if c.downloader != nil {
		c.downloader.Enqueue(&job, &ch)
	}
	return nil
}

// CancelDownload asks the engine to drop the medium's transfer. The engine
// reports back through RevertDownload once the cancellation lands.
func (c *Catalog) CancelDownload(m *database.Medium) {
	if c.downloader != nil {
		c.downloader.Cancel(m.Link)
	}
}

// CompleteDownload is the engine's success callback: the medium becomes
// local with its final filename, and a probed duration fills in a missing
// one. A medium no longer in download, removed mid-transfer for instance,
// rejects the step with ErrInvalidTransition instead of resurrecting.
func (c *Catalog) CompleteDownload(m *database.Medium, filename string, duration int) error {
	updated, err := c.writeThrough(m, func(u *database.Medium) error {
		if !u.Location.CanTransition(database.LocationLocal) {
			return fmt.Errorf("%s -> %s: %w", u.Location, database.LocationLocal, ErrInvalidTransition)
		}
		u.Location = database.LocationLocal
		u.Filename = filename
		if u.Duration == 0 && duration > 0 {
			u.Duration = duration
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return fmt.Errorf("complete %q: %w", m.Link, err)
	}

	c.observers.notify(Event{Kind: EventModified, Media: []*database.Medium{updated}})
	return nil
}

// RevertDownload is the engine's cancellation/permanent-failure callback:
// the medium falls back to remote. A medium already back at remote, one
// removed between cancellation and this callback, is left untouched.
func (c *Catalog) RevertDownload(m *database.Medium) error {
	skipped := false
	updated, err := c.writeThrough(m, func(u *database.Medium) error {
		if u.Location == database.LocationRemote {
			skipped = true
			return nil
		}
		u.Location = database.LocationRemote
		u.Filename = ""
		return nil
	})
	if err != nil {
		return fmt.Errorf("revert %q: %w", m.Link, err)
	}
	if skipped {
		return nil
	}

	c.observers.notify(Event{Kind: EventModified, Media: []*database.Medium{updated}})
	return nil
}

// writeThrough persists a mutated copy of the medium, then applies the new
// fields to the canonical index entry. The write mutex serializes the whole
// read-mutate-commit-apply sequence, so racing writers cannot lose updates
// or leave store and index disagreeing; the snapshot the mutation starts
// from is taken under the index lock, so mutate always sees the current
// canonical fields. The store commit always precedes the index mutation,
// no I/O happens under the index lock, and the returned medium is a
// private copy the caller may read freely. A mutate error aborts before
// anything is written.
func (c *Catalog) writeThrough(m *database.Medium, mutate func(*database.Medium) error) (*database.Medium, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	key := mediaKey{m.ChannelID, m.Link}

	c.mu.Lock()
	updated := *m
	if canonical, ok := c.mediaByKey[key]; ok {
		updated = *canonical
	}
	c.mu.Unlock()

	if err := mutate(&updated); err != nil {
		return nil, err
	}
	if err := c.media.UpdateMedium(&updated); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if canonical, ok := c.mediaByKey[key]; ok {
		*canonical = updated
	}
	c.mu.Unlock()

	out := updated
	return &out, nil
}

// copyMedia clones index entries so callers and observers never read a
// struct another goroutine mutates under the index lock. Caller holds c.mu.
func copyMedia(in []*database.Medium) []*database.Medium {
	out := make([]*database.Medium, len(in))
	for i, m := range in {
		cp := *m
		out[i] = &cp
	}
	return out
}

func copyChannels(in []*database.Channel) []*database.Channel {
	out := make([]*database.Channel, len(in))
	for i, ch := range in {
		cp := *ch
		out[i] = &cp
	}
	return out
}

func compileMask(mask string) (*regexp.Regexp, error) {
	if mask == "" {
		return nil, nil
	}
	re, err := regexp.Compile(mask)
	if err != nil {
		return nil, fmt.Errorf("mask %q: %w", mask, err)
	}
	return re, nil
}

func mediumFromItem(it source.Item) database.Medium {
	return database.Medium{
		Title:       it.Title,
		Date:        it.Date,
		Link:        it.Link,
		Duration:    it.Duration,
		Description: it.Description,
		Location:    database.LocationRemote,
		State:       database.StateUnread,
	}
}

// Channels returns the indexed channels in position order. All accessors
// hand out copies; index entries are only ever read or written under the
// index lock.
func (c *Catalog) Channels() []*database.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyChannels(c.channelList)
}

// Channel resolves a channel by identity.
func (c *Catalog) Channel(id int64) (*database.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channelByID[id]
	if !ok {
		return nil, fmt.Errorf("channel %d: %w", id, database.ErrNotFound)
	}
	cp := *ch
	return &cp, nil
}

// Media returns the indexed media in position order.
func (c *Catalog) Media() []*database.Medium {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMedia(c.mediaList)
}

// MediaByChannel returns the channel's media in position order.
func (c *Catalog) MediaByChannel(channelID int64) []*database.Medium {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*database.Medium
	for _, m := range c.mediaList {
		if m.ChannelID == channelID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

// Medium resolves a medium by identity.
func (c *Catalog) Medium(channelID int64, link string) (*database.Medium, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mediaByKey[mediaKey{channelID, link}]
	if !ok {
		return nil, fmt.Errorf("medium %q: %w", link, database.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

// MediumAt resolves a medium by its current position. Positions shift on
// every structural change; identity lookups are the stable form.
func (c *Catalog) MediumAt(pos int) (*database.Medium, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.mediaList) {
		return nil, false
	}
	cp := *c.mediaList[pos]
	return &cp, true
}

// MediumPosition returns the medium's current position.
func (c *Catalog) MediumPosition(channelID int64, link string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.mediaPos[mediaKey{channelID, link}]
	return pos, ok
}

// ChannelPosition returns the channel's current position.
func (c *Catalog) ChannelPosition(id int64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.channelPos[id]
	return pos, ok
}
