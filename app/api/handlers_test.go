package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediarack/mediarack/app/catalog"
	"github.com/mediarack/mediarack/app/database"
)

type stubCatalog struct {
	channels []*database.Channel
	media    map[string]*database.Medium // keyed "<id>/<link>"

	removedChannels []int64
	cancelled       []string
	enqueueErr      error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{media: make(map[string]*database.Medium)}
}

func (s *stubCatalog) key(channelID int64, link string) string {
	return fmt.Sprintf("%d/%s", channelID, link)
}

func (s *stubCatalog) Channels() []*database.Channel { return s.channels }

func (s *stubCatalog) Channel(id int64) (*database.Channel, error) {
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *stubCatalog) MediaByChannel(channelID int64) []*database.Medium {
	var out []*database.Medium
	for _, m := range s.media {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

func (s *stubCatalog) Medium(channelID int64, link string) (*database.Medium, error) {
	m, ok := s.media[s.key(channelID, link)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return m, nil
}

func (s *stubCatalog) AddChannel(ctx context.Context, url string, opts catalog.AddOptions) (*database.Channel, error) {
	for _, ch := range s.channels {
		if ch.URL == url && !opts.Force {
			return nil, catalog.ErrAlreadyExists
		}
	}
	ch := &database.Channel{ID: int64(len(s.channels) + 1), URL: url, Title: opts.Title}
	s.channels = append(s.channels, ch)
	return ch, nil
}

func (s *stubCatalog) PollChannel(ctx context.Context, channelID int64) (int, error) {
	if _, err := s.Channel(channelID); err != nil {
		return 0, err
	}
	return 2, nil
}

func (s *stubCatalog) SwitchState(media []*database.Medium, toSkip bool) catalog.BatchResult {
	var res catalog.BatchResult
	for range media {
		res.OK()
	}
	return res
}

func (s *stubCatalog) RemoveMedium(m *database.Medium, unlink bool) error { return nil }

func (s *stubCatalog) RemoveChannels(ids []int64) error {
	s.removedChannels = append(s.removedChannels, ids...)
	return nil
}

func (s *stubCatalog) EnqueueDownload(m *database.Medium) error { return s.enqueueErr }

func (s *stubCatalog) CancelDownload(m *database.Medium) {
	s.cancelled = append(s.cancelled, m.Link)
}

const testKey = "secret"

func newTestServer(cat CatalogInterface) http.Handler {
	return NewServer(NewHandler(cat, "test"), testKey)
}

func doRequest(t *testing.T, srv http.Handler, method, path, key string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	return out
}

func TestHealthOpen(t *testing.T) {
	srv := newTestServer(newStubCatalog())

	w := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", w.Code)
	}
	if body := decode(t, w); body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(newStubCatalog())

	if w := doRequest(t, srv, http.MethodGet, "/api/channels", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no key = %d, want 401", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/channels", "wrong", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key = %d, want 401", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/channels", testKey, nil); w.Code != http.StatusOK {
		t.Errorf("good key = %d, want 200", w.Code)
	}

	// Bearer form works too.
	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("bearer key = %d, want 200", w.Code)
	}
}

func TestAddChannel(t *testing.T) {
	cat := newStubCatalog()
	srv := newTestServer(cat)

	w := doRequest(t, srv, http.MethodPost, "/api/channels", testKey,
		map[string]interface{}{"url": "http://example.com/feed", "title": "Feed"})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/channels = %d, want 201: %s", w.Code, w.Body.String())
	}

	// Same URL again conflicts.
	w = doRequest(t, srv, http.MethodPost, "/api/channels", testKey,
		map[string]interface{}{"url": "http://example.com/feed"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate = %d, want 409", w.Code)
	}

	// Missing URL is a bad request.
	w = doRequest(t, srv, http.MethodPost, "/api/channels", testKey,
		map[string]interface{}{"title": "No URL"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing url = %d, want 400", w.Code)
	}
}

func TestPollChannel(t *testing.T) {
	cat := newStubCatalog()
	cat.channels = []*database.Channel{{ID: 1, Title: "Feed"}}
	srv := newTestServer(cat)

	w := doRequest(t, srv, http.MethodPost, "/api/channels/1/poll", testKey, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("poll = %d, want 200", w.Code)
	}
	if body := decode(t, w); body["new"] != float64(2) {
		t.Errorf("poll body = %v, want 2 new", body)
	}

	if w := doRequest(t, srv, http.MethodPost, "/api/channels/9/poll", testKey, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown channel = %d, want 404", w.Code)
	}
	if w := doRequest(t, srv, http.MethodPost, "/api/channels/x/poll", testKey, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestSwitchState(t *testing.T) {
	cat := newStubCatalog()
	cat.media["1/a"] = &database.Medium{ChannelID: 1, Link: "a"}
	srv := newTestServer(cat)

	w := doRequest(t, srv, http.MethodPost, "/api/media/state", testKey, map[string]interface{}{
		"items": []map[string]interface{}{
			{"channel_id": 1, "link": "a"},
			{"channel_id": 1, "link": "ghost"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("state = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["succeeded"] != float64(1) || body["failed"] != float64(1) {
		t.Errorf("body = %v, want 1/1", body)
	}
	if body["status"] != "1 succeeded, 1 failed" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestDownloadRoutes(t *testing.T) {
	cat := newStubCatalog()
	cat.media["1/a"] = &database.Medium{ChannelID: 1, Link: "a", Title: "Episode"}
	srv := newTestServer(cat)

	ref := map[string]interface{}{"channel_id": 1, "link": "a"}

	if w := doRequest(t, srv, http.MethodPost, "/api/downloads", testKey, ref); w.Code != http.StatusAccepted {
		t.Errorf("enqueue = %d, want 202", w.Code)
	}

	cat.enqueueErr = fmt.Errorf("local -> download: %w", catalog.ErrInvalidTransition)
	if w := doRequest(t, srv, http.MethodPost, "/api/downloads", testKey, ref); w.Code != http.StatusConflict {
		t.Errorf("invalid transition = %d, want 409", w.Code)
	}

	if w := doRequest(t, srv, http.MethodDelete, "/api/downloads", testKey, ref); w.Code != http.StatusAccepted {
		t.Errorf("cancel = %d, want 202", w.Code)
	}
	if len(cat.cancelled) != 1 || cat.cancelled[0] != "a" {
		t.Errorf("cancelled = %v, want a", cat.cancelled)
	}

	unknown := map[string]interface{}{"channel_id": 1, "link": "ghost"}
	if w := doRequest(t, srv, http.MethodPost, "/api/downloads", testKey, unknown); w.Code != http.StatusNotFound {
		t.Errorf("unknown medium = %d, want 404", w.Code)
	}
}

func TestRemoveChannel(t *testing.T) {
	cat := newStubCatalog()
	cat.channels = []*database.Channel{{ID: 1, Title: "Feed"}}
	srv := newTestServer(cat)

	if w := doRequest(t, srv, http.MethodDelete, "/api/channels/1", testKey, nil); w.Code != http.StatusOK {
		t.Fatalf("delete = %d, want 200", w.Code)
	}
	if len(cat.removedChannels) != 1 || cat.removedChannels[0] != 1 {
		t.Errorf("removed = %v, want [1]", cat.removedChannels)
	}
	if w := doRequest(t, srv, http.MethodDelete, "/api/channels/9", testKey, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown = %d, want 404", w.Code)
	}
}

func TestRemoveMedia(t *testing.T) {
	cat := newStubCatalog()
	cat.media["1/a"] = &database.Medium{ChannelID: 1, Link: "a", Title: "Episode"}
	srv := newTestServer(cat)

	w := doRequest(t, srv, http.MethodDelete, "/api/media", testKey,
		map[string]interface{}{"channel_id": 1, "link": "a", "unlink": true})
	if w.Code != http.StatusOK {
		t.Fatalf("remove = %d, want 200: %s", w.Code, w.Body.String())
	}
}
