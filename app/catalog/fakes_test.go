package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/mediarack/mediarack/app/database"
	"github.com/mediarack/mediarack/app/source"
)

// fakeStore implements ChannelRepo and MediaRepo in memory, mirroring the
// real repositories' contracts closely enough for catalog semantics.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	channels  map[int64]*database.Channel
	media     map[mediaKey]*database.Medium
	updateErr map[string]error // per-link UpdateMedium failure injection
	updated   []string         // links written through, in order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		channels:  make(map[int64]*database.Channel),
		media:     make(map[mediaKey]*database.Medium),
		updateErr: make(map[string]error),
	}
}

func (s *fakeStore) CreateChannelWithMedia(ch *database.Channel, items []database.Medium, watermark int64) ([]*database.Medium, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ch.ID = s.nextID
	ch.LastUpdate = watermark
	stored := *ch
	s.channels[ch.ID] = &stored

	inserted, _ := s.insertLocked(ch.ID, items)
	return inserted, nil
}

func (s *fakeStore) insertLocked(channelID int64, items []database.Medium) ([]*database.Medium, int) {
	var inserted []*database.Medium
	skipped := 0
	for i := range items {
		m := items[i]
		m.ChannelID = channelID
		if m.Location == "" {
			m.Location = database.LocationRemote
		}
		if m.State == "" {
			m.State = database.StateUnread
		}
		key := mediaKey{channelID, m.Link}
		if _, exists := s.media[key]; exists {
			skipped++
			continue
		}
		stored := m
		s.media[key] = &stored
		out := m
		inserted = append(inserted, &out)
	}
	return inserted, skipped
}

func (s *fakeStore) GetChannel(id int64) (*database.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *ch
	return &out, nil
}

func (s *fakeStore) GetChannelsByURL(url string) ([]*database.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*database.Channel
	for _, ch := range s.channels {
		if ch.URL == url {
			c := *ch
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListChannels() ([]*database.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*database.Channel
	for _, ch := range s.channels {
		c := *ch
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) UpdateChannel(ch *database.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.channels[ch.ID]
	if !ok {
		return database.ErrNotFound
	}
	stored := *ch
	if stored.LastUpdate < cur.LastUpdate {
		stored.LastUpdate = cur.LastUpdate
	}
	s.channels[ch.ID] = &stored
	return nil
}

func (s *fakeStore) RemoveChannels(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.channels, id)
		for key := range s.media {
			if key.channelID == id {
				delete(s.media, key)
			}
		}
	}
	return nil
}

func (s *fakeStore) ListMedia() ([]*database.Medium, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*database.Medium
	for _, m := range s.media {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *fakeStore) ListMediaByChannel(channelID int64) ([]*database.Medium, error) {
	all, _ := s.ListMedia()
	var out []*database.Medium
	for _, m := range all {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertNewMedia(channelID int64, items []database.Medium, watermark int64) ([]*database.Medium, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted, skipped := s.insertLocked(channelID, items)
	if ch, ok := s.channels[channelID]; ok && watermark > ch.LastUpdate {
		ch.LastUpdate = watermark
	}
	return inserted, skipped, nil
}

func (s *fakeStore) UpdateMedium(m *database.Medium) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErr[m.Link]; err != nil {
		return err
	}
	key := mediaKey{m.ChannelID, m.Link}
	if _, ok := s.media[key]; !ok {
		return database.ErrNotFound
	}
	stored := *m
	s.media[key] = &stored
	s.updated = append(s.updated, m.Link)
	return nil
}

func (s *fakeStore) medium(channelID int64, link string) *database.Medium {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[mediaKey{channelID, link}]
	if !ok {
		return nil
	}
	out := *m
	return &out
}

// fakeBackend serves canned fetch results.
type fakeBackend struct {
	mu           sync.Mutex
	result       *source.Result
	err          error
	fetchGate    chan struct{} // when set, FetchNew blocks until closed
	fetchStarted chan struct{} // when set, signaled once per FetchNew
	descriptions map[string]string
}

func (b *fakeBackend) Type() string { return "rss" }

func (b *fakeBackend) FetchNew(ctx context.Context, url string, since int64, opts source.Options) (*source.Result, error) {
	b.mu.Lock()
	gate, started := b.fetchGate, b.fetchStarted
	result, err := b.result, b.err
	b.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	res := &source.Result{Title: result.Title, Watermark: result.Watermark}
	for _, it := range result.Items {
		if it.Date > since {
			res.Items = append(res.Items, it)
		}
	}
	return res, nil
}

func (b *fakeBackend) Transfer(ctx context.Context, link, dest string) error { return nil }

func (b *fakeBackend) Describe(ctx context.Context, link string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if desc, ok := b.descriptions[link]; ok {
		return desc, nil
	}
	return "", source.ErrNotSupported
}

func (b *fakeBackend) ProbeDuration(ctx context.Context, path string) (int, error) { return 0, nil }

// fakeDownloader records enqueue and cancel calls.
type fakeDownloader struct {
	mu        sync.Mutex
	enqueued  []string
	cancelled []string
}

func (d *fakeDownloader) Enqueue(m *database.Medium, ch *database.Channel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, link := range d.enqueued {
		if link == m.Link {
			return false
		}
	}
	d.enqueued = append(d.enqueued, m.Link)
	return true
}

func (d *fakeDownloader) Cancel(link string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelled = append(d.cancelled, link)
}

func (d *fakeDownloader) enqueuedLinks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.enqueued))
	copy(out, d.enqueued)
	return out
}

// recorder collects events in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) CatalogChanged(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) byKind(kind EventKind) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
