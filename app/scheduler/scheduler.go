package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mediarack/mediarack/app/database"
)

// Catalog is the surface the scheduler drives polls through.
type Catalog interface {
	Channels() []*database.Channel
	PollChannel(ctx context.Context, channelID int64) (int, error)
}

const pollTimeout = 5 * time.Minute

// Scheduler enqueues a poll for every enabled channel on a fixed interval
// and drains the queue with a small worker pool. A slow backend cannot pile
// up a backlog: a full queue drops the request and the catalog coalesces
// duplicate polls for a channel already in flight.
type Scheduler struct {
	catalog  Catalog
	interval time.Duration
	workers  int

	queue  chan int64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(catalog Catalog, interval time.Duration, workers int) *Scheduler {
	if workers <= 0 {
		workers = 4
	}

	return &Scheduler{
		catalog:  catalog,
		interval: interval,
		workers:  workers,
		queue:    make(chan int64, 300),
	}
}

func (s *Scheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDue()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDue()
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval.String(), "workers", s.workers)
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) enqueueDue() {
	channels := s.catalog.Channels()
	if len(channels) == 0 {
		slog.Debug("No channels to poll")
		return
	}

	for _, ch := range channels {
		if ch.Disabled {
			slog.Debug("Channel disabled, poll skipped", "channel", ch.Title)
			continue
		}
		select {
		case s.queue <- ch.ID:
		default:
			slog.Warn("Poll queue full, request dropped", "channel", ch.Title)
		}
	}
}

// PollAll polls every enabled channel inline, for one-shot batch runs.
// Errors are reported per channel and do not stop the sweep.
func (s *Scheduler) PollAll(ctx context.Context) {
	for _, ch := range s.catalog.Channels() {
		if ch.Disabled {
			continue
		}
		if _, err := s.catalog.PollChannel(ctx, ch.ID); err != nil {
			slog.Error("Poll failed", "channel", ch.Title, "error", err)
		}
	}
}

// worker drains poll requests. A failed poll is logged and never kills the
// loop.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case channelID := <-s.queue:
			pollCtx, cancel := context.WithTimeout(s.ctx, pollTimeout)
			if _, err := s.catalog.PollChannel(pollCtx, channelID); err != nil {
				slog.Error("Scheduled poll failed", "worker_id", id, "channel_id", channelID, "error", err)
			}
			cancel()
		}
	}
}
