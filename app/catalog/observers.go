package catalog

import (
	"sync"

	"github.com/mediarack/mediarack/app/database"
)

// EventKind discriminates catalog mutation events.
type EventKind int

const (
	// EventAdded carries newly visible channels or media.
	EventAdded EventKind = iota

	// EventModified carries in-place field changes on already visible
	// items (state, location, tags, description).
	EventModified

	// EventRemoved signals a structural removal. Positions are
	// renumbered; observers must drop cached positions and re-resolve
	// by identity.
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// Event is one catalog mutation, delivered synchronously with the mutation
// that caused it.
type Event struct {
	Kind     EventKind
	Channels []*database.Channel
	Media    []*database.Medium
}

// Observer receives catalog mutation events. Callbacks run on the mutating
// goroutine with no catalog lock held; an observer that wants asynchronous
// work must hand off internally.
type Observer interface {
	CatalogChanged(ev Event)
}

type observerRegistry struct {
	mu        sync.Mutex
	observers []Observer
}

func (r *observerRegistry) subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

func (r *observerRegistry) unsubscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.observers {
		if cur == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// notify fans the event out over a snapshot of the subscriber list, so an
// observer may unsubscribe itself (or others) from inside its own callback.
func (r *observerRegistry) notify(ev Event) {
	r.mu.Lock()
	snapshot := make([]Observer, len(r.observers))
	copy(snapshot, r.observers)
	r.mu.Unlock()

	for _, o := range snapshot {
		o.CatalogChanged(ev)
	}
}
