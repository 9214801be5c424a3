package downloads

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mediarack/mediarack/app/database"
	"github.com/mediarack/mediarack/app/source"
)

const (
	// DefaultMaxRetries is the total number of transfer attempts per
	// explicit enqueue.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the fixed backoff between attempts.
	DefaultRetryDelay = 10 * time.Second
)

// Applier is the write-through surface the engine reports outcomes to.
// The catalog implements it: both calls persist the location transition and
// notify observers.
type Applier interface {
	// CompleteDownload moves the medium to local with its final filename
	// and, when the source supplied none, the probed duration.
	CompleteDownload(m *database.Medium, filename string, duration int) error

	// RevertDownload moves the medium back to remote after a cancellation
	// or a permanent failure.
	RevertDownload(m *database.Medium) error
}

// Job is one queued transfer.
type Job struct {
	Medium  *database.Medium
	Channel *database.Channel
}

// Engine runs a fixed pool of workers draining a FIFO queue of transfers.
// Enqueueing is idempotent per medium link; in-flight transfers are
// cancellable; failures retry with a fixed backoff up to a bounded number
// of attempts.
type Engine struct {
	backends    *source.Registry
	applier     Applier
	downloadDir string
	workers     int
	maxRetries  int
	retryDelay  time.Duration

	queue chan Job

	mu        sync.Mutex // guards pending, cancelled, cancels
	pending   map[string]bool
	cancelled map[string]bool
	cancels   map[string]context.CancelFunc

	attemptsMu sync.Mutex
	attempts   map[string]int

	idleMu      sync.Mutex
	idleCond    *sync.Cond
	outstanding int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEngine(backends *source.Registry, applier Applier, downloadDir string, workers int) *Engine {
	if workers <= 0 {
		workers = 2
	}

	e := &Engine{
		backends:    backends,
		applier:     applier,
		downloadDir: downloadDir,
		workers:     workers,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		queue:       make(chan Job, 256),
		pending:     make(map[string]bool),
		cancelled:   make(map[string]bool),
		cancels:     make(map[string]context.CancelFunc),
		attempts:    make(map[string]int),
	}
	e.idleCond = sync.NewCond(&e.idleMu)
	return e
}

func (e *Engine) Start() {
	e.ctx, e.cancel = context.WithCancel(context.Background())

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}

	slog.Info("Download engine started", "workers", e.workers)
}

func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
	slog.Info("Download engine stopped")
}

// Enqueue queues a transfer for the medium. A medium already queued or in
// flight is a silent no-op; the return value reports whether the job was
// accepted. An explicit enqueue resets the medium's attempt counter.
func (e *Engine) Enqueue(m *database.Medium, ch *database.Channel) bool {
	e.mu.Lock()
	if e.pending[m.Link] {
		e.mu.Unlock()
		slog.Debug("Medium already queued, enqueue ignored", "link", m.Link)
		return false
	}
	e.pending[m.Link] = true
	delete(e.cancelled, m.Link)
	e.mu.Unlock()

	e.attemptsMu.Lock()
	delete(e.attempts, m.Link)
	e.attemptsMu.Unlock()

	e.idleMu.Lock()
	e.outstanding++
	e.idleMu.Unlock()

	e.push(Job{Medium: m, Channel: ch})
	slog.Info("Download queued", "channel", ch.Title, "title", m.Title, "link", m.Link)
	return true
}

func (e *Engine) push(job Job) {
	select {
	case e.queue <- job:
	default:
		// Queue momentarily full; hand off so the caller never blocks.
		go func() {
			select {
			case e.queue <- job:
			case <-e.ctx.Done():
			}
		}()
	}
}

// Cancel interrupts the medium's transfer. An in-flight transfer is cut at
// its next cooperative checkpoint; a queued one is dropped before any bytes
// move. Unknown links are no-ops.
func (e *Engine) Cancel(link string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cancel, ok := e.cancels[link]; ok {
		cancel()
		slog.Info("Download cancellation requested", "link", link)
		return
	}
	if e.pending[link] {
		e.cancelled[link] = true
		slog.Info("Queued download cancelled", "link", link)
	}
}

// WaitIdle blocks until the queue is drained and nothing is in flight.
func (e *Engine) WaitIdle() {
	e.idleMu.Lock()
	defer e.idleMu.Unlock()
	for e.outstanding > 0 {
		e.idleCond.Wait()
	}
}

// Outstanding returns the number of media queued or in flight.
func (e *Engine) Outstanding() int {
	e.idleMu.Lock()
	defer e.idleMu.Unlock()
	return e.outstanding
}

func (e *Engine) worker(id int) {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case job := <-e.queue:
			e.process(id, job)
		}
	}
}

// process runs one transfer attempt. Job errors never propagate: the worker
// keeps draining the queue whatever happens here.
func (e *Engine) process(workerID int, job Job) {
	link := job.Medium.Link

	e.mu.Lock()
	if e.cancelled[link] {
		delete(e.cancelled, link)
		e.mu.Unlock()
		e.revert(job.Medium)
		e.finish(link)
		return
	}
	jobCtx, cancel := context.WithCancel(e.ctx)
	e.cancels[link] = cancel
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, link)
		e.mu.Unlock()
	}()

	backend, err := e.backends.Get(job.Channel.Type)
	if err != nil {
		slog.Error("No backend for channel type", "worker_id", workerID, "type", job.Channel.Type, "error", err)
		e.revert(job.Medium)
		e.finish(link)
		return
	}

	dest := e.destination(job)
	start := time.Now()
	err = backend.Transfer(jobCtx, link, dest)

	switch {
	case err == nil:
		duration := job.Medium.Duration
		if duration == 0 {
			probeCtx, probeCancel := context.WithTimeout(e.ctx, time.Minute)
			if probed, perr := backend.ProbeDuration(probeCtx, dest); perr == nil {
				duration = probed
			} else {
				slog.Debug("Duration probe failed", "file", dest, "error", perr)
			}
			probeCancel()
		}

		if aerr := e.applier.CompleteDownload(job.Medium, dest, duration); aerr != nil {
			// The medium may have been removed while the transfer ran;
			// drop the orphaned file rather than keep bytes nothing
			// references.
			slog.Error("Failed to record finished download", "link", link, "error", aerr)
			os.Remove(dest)
		}

		e.attemptsMu.Lock()
		delete(e.attempts, link)
		e.attemptsMu.Unlock()

		slog.Info("Download completed", "worker_id", workerID, "title", job.Medium.Title,
			"file", dest, "duration", time.Since(start).Round(time.Millisecond))
		e.finish(link)

	case jobCtx.Err() != nil && e.ctx.Err() == nil:
		// Cancelled by request, not by shutdown.
		slog.Info("Download cancelled", "worker_id", workerID, "title", job.Medium.Title)
		e.revert(job.Medium)
		e.finish(link)

	case e.ctx.Err() != nil:
		// Shutting down; leave the medium for the next run.
		e.finish(link)

	default:
		e.retry(workerID, job, err)
	}
}

// retry re-enqueues a failed transfer after the backoff delay, up to
// maxRetries attempts total. Exhausting the budget reverts the medium to
// remote; only a fresh explicit enqueue tries again.
func (e *Engine) retry(workerID int, job Job, cause error) {
	link := job.Medium.Link

	e.attemptsMu.Lock()
	e.attempts[link]++
	attempt := e.attempts[link]
	e.attemptsMu.Unlock()

	if attempt >= e.maxRetries {
		slog.Error("Download failed permanently", "worker_id", workerID, "title", job.Medium.Title,
			"link", link, "attempts", attempt, "error", cause)
		e.revert(job.Medium)
		e.finish(link)
		return
	}

	slog.Warn("Download failed, retry scheduled", "worker_id", workerID, "title", job.Medium.Title,
		"attempt", attempt, "max_retries", e.maxRetries, "delay", e.retryDelay.String(), "error", cause)

	go func() {
		select {
		case <-time.After(e.retryDelay):
			e.push(job)
		case <-e.ctx.Done():
		}
	}()
}

func (e *Engine) revert(m *database.Medium) {
	if err := e.applier.RevertDownload(m); err != nil {
		slog.Error("Failed to revert download state", "link", m.Link, "error", err)
	}
}

func (e *Engine) finish(link string) {
	e.mu.Lock()
	delete(e.pending, link)
	delete(e.cancelled, link)
	e.mu.Unlock()

	e.idleMu.Lock()
	e.outstanding--
	e.idleCond.Broadcast()
	e.idleMu.Unlock()
}

// destination builds the target path: <downloadDir>/<channel>/<title>.<ext>,
// sanitized for the filesystem.
func (e *Engine) destination(job Job) string {
	dir := sanitize(job.Channel.Title)
	if dir == "" {
		dir = fmt.Sprintf("channel-%d", job.Channel.ID)
	}

	name := sanitize(job.Medium.Title)
	if name == "" {
		name = sanitize(strings.TrimSuffix(path.Base(linkPath(job.Medium.Link)), path.Ext(linkPath(job.Medium.Link))))
	}
	if name == "" {
		name = "medium"
	}

	ext := path.Ext(linkPath(job.Medium.Link))
	if ext == "" {
		ext = ".bin"
	}

	return filepath.Join(e.downloadDir, dir, name+ext)
}

func linkPath(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	return u.Path
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
}
