package source

import (
	"fmt"
	"sync"
)

// Registry maps channel types to their backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Type()] = b
}

// Get returns the backend for a channel type, or ErrNotSupported.
func (r *Registry) Get(channelType string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[channelType]
	if !ok {
		return nil, fmt.Errorf("channel type %q: %w", channelType, ErrNotSupported)
	}
	return b, nil
}

// Types returns the registered channel types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.backends))
	for t := range r.backends {
		types = append(types, t)
	}
	return types
}
